package storage

import (
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestStorageFS(t *testing.T) {
	logger := logs.NewTestingLog(t)
	st, err := NewStorageFS(logger, t.TempDir(), "/media")
	require.NoError(t, err)

	url, err := UploadFile(st, "CLASIFICADOR_FRUTAS/proc_20250101_120000.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "/media/CLASIFICADOR_FRUTAS/proc_20250101_120000.jpg", url)

	content, err := ReadFile(st, "CLASIFICADOR_FRUTAS/proc_20250101_120000.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), content)

	require.NoError(t, st.DeleteFile("CLASIFICADOR_FRUTAS/proc_20250101_120000.jpg"))
	_, err = ReadFile(st, "CLASIFICADOR_FRUTAS/proc_20250101_120000.jpg")
	require.Error(t, err)

	// Deleting an object that does not exist is not an error
	require.NoError(t, st.DeleteFile("CLASIFICADOR_FRUTAS/proc_20250101_120000.jpg"))

	// Path traversal is rejected
	_, err = st.WriteFile("../escape.jpg")
	require.Error(t, err)
	require.Error(t, st.DeleteFile("../escape.jpg"))
}
