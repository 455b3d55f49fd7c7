package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/frutero/frutero/server/storage"
	"github.com/julienschmidt/httprouter"
)

//go:embed www
var staticWWW embed.FS

// Route prefixes that are handled by the API, and must never fall through to
// the static file server.
var apiPrefixes = []string{"/api/", "/upload", "/captura", "/biblioteca", "/delete/", "/estadisticas", "/media/"}

func (s *Server) setupHttpRoutes() error {
	router := httprouter.New()

	// Like www.Handle, except that the error path sends {"error": msg} JSON.
	handle := func(method, route string, handle httprouter.Handle) {
		router.Handle(method, route, func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
			runProtected(s.Log, w, r, func() { handle(w, r, p) })
		})
	}

	handle("GET", "/api/ping", s.httpPing)
	handle("POST", "/upload", s.httpUpload)
	handle("POST", "/captura", s.httpCapture)
	handle("GET", "/biblioteca", s.httpLibraryList)
	handle("DELETE", "/delete/:id", s.httpLibraryDelete)
	handle("GET", "/estadisticas", s.httpStats)

	// When media lives on the local filesystem, we serve it back ourselves.
	// With GCS the entry URLs point straight into the bucket.
	if fsStorage, ok := s.storage.(*storage.StorageFS); ok {
		handle("GET", "/media/*filepath", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			filename, err := fsStorage.Filename(params.ByName("filepath"))
			www.CheckClient(err)
			http.ServeFile(w, r, filename)
		})
	}

	isImmutable := true
	var fsys fs.FS
	fsysRoot := "www"
	fsys = staticWWW
	if s.HotReloadWWW {
		relRoot := "server/www"
		absRoot, err := filepath.Abs(relRoot)
		if err != nil {
			s.Log.Errorf("Failed to resolve static file directory %v: %v", relRoot, err)
			return errors.New("Failed to resolve static file directory for hot reload")
		}
		s.Log.Infof("Serving static files from %v, with hot reload", absRoot)
		fsys = os.DirFS(absRoot)
		fsysRoot = ""
		isImmutable = false
	}

	static, err := staticfiles.NewCachedStaticFileServer(fsys, fsysRoot, apiPrefixes, s.Log, isImmutable, nil)
	if err != nil {
		s.Log.Warnf("Error in static files: %v", err)
	}
	router.NotFound = static

	s.httpRouter = router
	return nil
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	www.SendJSON(w, &pingJSON{Time: timeNow().Unix()})
}
