package model

import (
	"github.com/cyclopcam/dbh"
	"github.com/frutero/frutero/pkg/gen"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

const (
	SourceUpload = "upload"
	SourceCamera = "camera"
)

// TimestampFormat is the human-readable creation time stored on each entry.
const TimestampFormat = "02/01/2006 15:04"

// Detection is one classified bounding box from the fruit model.
// The field names are our wire format, so don't change them.
type Detection struct {
	Clase string  `json:"clase"`
	Conf  float64 `json:"conf"`
}

// LibraryEntry is one processed image: its detections, media URLs and derived stats.
// SYNC-LIBRARY-ENTRY
type LibraryEntry struct {
	BaseModel
	CreatedAt         dbh.IntTime                       `json:"created_at"`
	Timestamp         string                            `json:"timestamp"` // Human readable, TimestampFormat
	Detections        *dbh.JSONField[[]Detection]       `gorm:"column:detecciones" json:"detecciones"`
	URL               string                            `json:"url"`
	ThumbnailURL      string                            `json:"thumbnail_url"`
	MediaID           string                            `json:"media_id"`     // Blob store object name of the annotated image
	ThumbnailID       string                            `json:"thumbnail_id"` // Blob store object name of the thumbnail
	HasDetection      bool                              `json:"has_detection"`
	OriginalFilename  string                            `json:"original_filename"`
	Source            string                            `json:"source"` // "upload" or "camera"
	ConfidenceAverage float64                           `json:"confidence_average"`
	DetectionCount    int                               `json:"detection_count"`
}

func (LibraryEntry) TableName() string {
	return "biblioteca"
}

// SetDetections stores the detections and recomputes the derived fields.
// Derived field invariants:
//
//	detection_count == len(detecciones)
//	has_detection == detection_count > 0
//	confidence_average == 0 when empty, else the mean rounded to 2 decimals
func (e *LibraryEntry) SetDetections(detections []Detection) {
	e.Detections = dbh.MakeJSONField(detections)
	e.DetectionCount = len(detections)
	e.HasDetection = len(detections) > 0
	confidences := make([]float64, 0, len(detections))
	for _, d := range detections {
		confidences = append(confidences, d.Conf)
	}
	e.ConfidenceAverage = gen.Round2(gen.Mean(confidences))
}

// DetectionList returns the stored detections (never nil for a loaded entry).
func (e *LibraryEntry) DetectionList() []Detection {
	if e.Detections == nil {
		return nil
	}
	return e.Detections.Data
}
