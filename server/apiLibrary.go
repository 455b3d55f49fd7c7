package server

import (
	"errors"
	"net/http"
	"path"

	"github.com/cyclopcam/www"
	"github.com/frutero/frutero/server/model"
	"github.com/julienschmidt/httprouter"
	"gorm.io/gorm"
)

// List all library entries, most recent first.
func (s *Server) httpLibraryList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	entries := []model.LibraryEntry{}
	www.Check(s.DB.Order("created_at DESC, id DESC").Find(&entries).Error)
	www.SendJSON(w, entries)
}

// Delete a library entry and both of its media objects.
// Media goes first, then the metadata row. If a media delete fails we log it
// and carry on, so the two stores can drift apart here. There is no
// compensating transaction.
func (s *Server) httpLibraryDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	entry := model.LibraryEntry{}
	if err := s.DB.First(&entry, id).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		www.Panic(http.StatusNotFound, "Registro no encontrado")
	} else {
		www.Check(err)
	}

	for _, name := range []string{s.mediaObjectName(entry.MediaID, entry.URL), s.mediaObjectName(entry.ThumbnailID, entry.ThumbnailURL)} {
		if name == "" {
			continue
		}
		if err := s.storage.DeleteFile(name); err != nil {
			s.Log.Warnf("Failed to delete media object %v of entry %v: %v", name, entry.ID, err)
		}
	}

	www.Check(s.DB.Delete(&model.LibraryEntry{}, id).Error)
	s.Log.Infof("Deleted library entry %v", id)
	www.SendJSON(w, map[string]string{"message": "Registro e imágenes eliminados correctamente"})
}

// mediaObjectName returns the blob store object name for one of an entry's
// media files. Entries store their object names directly; for rows that
// predate those columns we fall back to deriving the name from the URL's last
// path segment.
func (s *Server) mediaObjectName(storedID, url string) string {
	if storedID != "" {
		return storedID
	}
	if url == "" {
		return ""
	}
	return s.mediaFolder + "/" + path.Base(url)
}
