package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"github.com/stretchr/testify/require"
)

func TestRunProtected(t *testing.T) {
	logger := logs.NewTestingLog(t)

	run := func(handler func()) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/test", nil)
		runProtected(logger, w, r, handler)
		return w
	}

	errBody := func(w *httptest.ResponseRecorder) string {
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var m map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
		return m["error"]
	}

	w := run(func() {})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())

	w = run(func() { www.PanicBadRequestf("No imagen") })
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No imagen", errBody(w))

	w = run(func() { www.Panic(http.StatusNotFound, "Registro no encontrado") })
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Registro no encontrado", errBody(w))

	// A generic error panic maps to a 500 with the error text
	w = run(func() { www.Check(errors.New("upstream exploded")) })
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "upstream exploded", errBody(w))
}
