package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/www"
	"github.com/frutero/frutero/pkg/gen"
	"github.com/frutero/frutero/pkg/nn"
	"github.com/frutero/frutero/server/model"
	"github.com/frutero/frutero/server/storage"
	"github.com/julienschmidt/httprouter"
)

// Media object names are derived from this timestamp format, eg
// CLASIFICADOR_FRUTAS/proc_20260829_103000.jpg
const mediaTimestampFormat = "20060102_150405"

const thumbnailSize = 200
const jpegQuality = 85

// 16 MB is far beyond any reasonable camera frame
const maxImageBytes = 16 * 1024 * 1024

// Overridable for tests that want deterministic timestamps
var timeNow = time.Now

// Upload an image as a multipart form file in the "imagen" field.
func (s *Server) httpUpload(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	file, header, err := r.FormFile("imagen")
	if err != nil {
		www.PanicBadRequestf("No imagen")
	}
	defer file.Close()
	raw, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	www.Check(err)
	if len(raw) == 0 {
		www.PanicBadRequestf("No imagen")
	}
	entry := s.processImage(raw, header.Filename, model.SourceUpload)
	www.SendJSON(w, entry)
}

// Upload a camera frame as a base64 string in a JSON body, eg
// {"imagen": "data:image/jpeg;base64,/9j/4AAQ..."}
func (s *Server) httpCapture(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := struct {
		Imagen string `json:"imagen"`
	}{}
	www.ReadJSON(w, r, &body, maxImageBytes)
	data := body.Imagen
	// Strip the "data:image/...;base64," prefix
	if idx := strings.IndexByte(data, ','); idx >= 0 {
		data = data[idx+1:]
	}
	if data == "" {
		www.PanicBadRequestf("No imagen")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	www.CheckClient(err)
	entry := s.processImage(raw, "", model.SourceCamera)
	www.SendJSON(w, entry)
}

// processImage is the shared pipeline behind /upload and /captura:
// decode, detect, annotate, thumbnail, upload both media objects, insert the
// library record. The media uploads happen before the insert, because the
// record stores the resulting URLs.
func (s *Server) processImage(raw []byte, filename, source string) *model.LibraryEntry {
	img, err := cimg.Decompress(raw)
	if err != nil {
		www.PanicBadRequestf("Imagen inválida: %v", err)
	}
	if img.NChan() != 3 {
		img = img.ToRGB()
	}

	rgb := nn.WholeImage(img.Pixels, img.Width, img.Height)
	detParams := nn.NewDetectionParams()
	detParams.ProbabilityThreshold = s.confidenceThreshold
	objects, err := s.detector.DetectObjects(rgb, detParams)
	www.Check(err)

	annotated, err := s.annotate(rgb, objects, s.detector.Config())
	www.Check(err)

	thumb, err := cimg.Compress(cimg.ResizeNew(img, thumbnailSize, thumbnailSize, nil), cimg.MakeCompressParams(cimg.Sampling420, jpegQuality, 0))
	www.Check(err)

	now := timeNow()
	ts := now.Format(mediaTimestampFormat)
	procName := s.mediaFolder + "/proc_" + ts + ".jpg"
	thumbName := s.mediaFolder + "/thumb_" + ts + ".jpg"
	url, err := storage.UploadFile(s.storage, procName, annotated)
	www.Check(err)
	thumbURL, err := storage.UploadFile(s.storage, thumbName, thumb)
	www.Check(err)

	if filename == "" {
		filename = "capture_" + ts + ".jpg"
	}

	modelConfig := s.detector.Config()
	detections := make([]model.Detection, 0, len(objects))
	for _, obj := range objects {
		detections = append(detections, model.Detection{
			Clase: modelConfig.ClassName(obj.Class),
			Conf:  gen.Round2(float64(obj.Confidence)),
		})
	}

	entry := &model.LibraryEntry{
		CreatedAt:        dbh.MakeIntTime(now),
		Timestamp:        now.Format(model.TimestampFormat),
		URL:              url,
		ThumbnailURL:     thumbURL,
		MediaID:          procName,
		ThumbnailID:      thumbName,
		OriginalFilename: filename,
		Source:           source,
	}
	entry.SetDetections(detections)
	www.Check(s.DB.Create(entry).Error)
	s.Log.Infof("Processed %v image %v: %v detections (entry %v)", source, filename, entry.DetectionCount, entry.ID)
	return entry
}
