package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
)

// sendError sends the error wire format that the frontend expects:
// a JSON body {"error": message}, with the appropriate status code.
func sendError(w http.ResponseWriter, message string, code int) {
	body, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// runProtected runs 'handler' inside a panic handler that recognizes www's
// typed errors, and sends the appropriate JSON error response if a panic does occur.
func runProtected(log logs.Log, w http.ResponseWriter, r *http.Request, handler func()) {
	defer func() {
		if rec := recover(); rec != nil {
			if hErr, ok := rec.(www.HTTPError); ok {
				log.Infof("Failed request %v: %v %v", r.URL.Path, hErr.Code, hErr.Message)
				sendError(w, hErr.Message, hErr.Code)
			} else if hErr, ok := rec.(*www.HTTPError); ok {
				log.Infof("Failed request %v: %v %v", r.URL.Path, hErr.Code, hErr.Message)
				sendError(w, hErr.Message, hErr.Code)
			} else if err, ok := rec.(runtime.Error); ok {
				// Show stack trace on runtime error
				log.Errorf("Runtime panic error %v: %v", r.URL.Path, err)
				log.Errorf("Stack Trace: %v", string(debug.Stack()))
				sendError(w, err.Error(), http.StatusInternalServerError)
			} else if err, ok := rec.(error); ok {
				// No stack trace on generic error
				log.Errorf("Panic error %v: %v", r.URL.Path, err)
				sendError(w, err.Error(), http.StatusInternalServerError)
			} else if err, ok := rec.(string); ok {
				log.Errorf("Panic string %v: %v", r.URL.Path, err)
				sendError(w, err, http.StatusInternalServerError)
			} else {
				log.Errorf("Unrecognized panic %v: %v", r.URL.Path, rec)
				sendError(w, "Unrecognized panic", http.StatusInternalServerError)
			}
		}
	}()

	handler()
}
