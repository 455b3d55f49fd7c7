package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/frutero/frutero/pkg/nn"
	"github.com/frutero/frutero/server/model"
	"github.com/frutero/frutero/server/storage"
	"github.com/stretchr/testify/require"
)

// fakeDetector returns a canned list of detections, so that handler tests
// don't need a real model.
type fakeDetector struct {
	config     *nn.ModelConfig
	detections []nn.ObjectDetection
}

func (d *fakeDetector) Close() {}

func (d *fakeDetector) DetectObjects(img nn.ImageRGB, params *nn.DetectionParams) ([]nn.ObjectDetection, error) {
	return d.detections, nil
}

func (d *fakeDetector) Config() *nn.ModelConfig {
	return d.config
}

type testServer struct {
	s        *Server
	detector *fakeDetector
	mediaDir string
}

func newTestServer(t *testing.T) *testServer {
	logger := logs.NewTestingLog(t)

	db, err := openDB(logger, dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "biblioteca.sqlite")), dbh.DBConnectFlagWipeDB)
	require.NoError(t, err)

	mediaDir := t.TempDir()
	store, err := storage.NewStorageFS(logger, mediaDir, "/media")
	require.NoError(t, err)

	detector := &fakeDetector{
		config: &nn.ModelConfig{
			Architecture: "yolov8",
			Width:        640,
			Height:       640,
			Classes:      []string{"manzana", "banana", "pera"},
		},
	}

	s, err := newServer(logger, db, detector, store, "CLASIFICADOR_FRUTAS", 0.4, false)
	require.NoError(t, err)
	// The real annotator needs OpenCV, which the fake pipeline doesn't exercise
	s.annotate = func(img nn.ImageRGB, detections []nn.ObjectDetection, config *nn.ModelConfig) ([]byte, error) {
		return []byte("annotated-jpeg"), nil
	}

	return &testServer{s: s, detector: detector, mediaDir: mediaDir}
}

// pinTime makes object name timestamps deterministic for the duration of a test.
func pinTime(t *testing.T, at time.Time) {
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = time.Now })
}

// testJPEG returns a small valid JPEG image.
func testJPEG(t *testing.T) []byte {
	img := cimg.NewImage(32, 32, cimg.PixelFormatRGB)
	jpg, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling420, 90, 0))
	require.NoError(t, err)
	return jpg
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (ts *testServer) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	r := httptest.NewRequest(method, path, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.s.httpRouter.ServeHTTP(w, r)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (ts *testServer) countRows(t *testing.T) int64 {
	n := int64(0)
	require.NoError(t, ts.s.DB.Model(&model.LibraryEntry{}).Count(&n).Error)
	return n
}
