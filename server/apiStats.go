package server

import (
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/frutero/frutero/pkg/gen"
	"github.com/frutero/frutero/server/model"
	"github.com/julienschmidt/httprouter"
)

type statsJSON struct {
	Total                int                `json:"total"`
	Detected             int                `json:"detectadas"`
	NotDetected          int                `json:"no_detectadas"`
	Classes              map[string]int     `json:"clases"`
	AvgConfidenceByClass map[string]float64 `json:"avg_confidence_by_class"`
}

// Aggregate statistics over the whole library. This is a full recompute on
// every call; the library is small enough that caching isn't worth it.
func (s *Server) httpStats(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	entries := []model.LibraryEntry{}
	www.Check(s.DB.Find(&entries).Error)

	stats := statsJSON{
		Total:                len(entries),
		Classes:              map[string]int{},
		AvgConfidenceByClass: map[string]float64{},
	}
	confidencesByClass := map[string][]float64{}
	for _, entry := range entries {
		if entry.HasDetection {
			stats.Detected++
		}
		for _, det := range entry.DetectionList() {
			stats.Classes[det.Clase]++
			confidencesByClass[det.Clase] = append(confidencesByClass[det.Clase], det.Conf)
		}
	}
	stats.NotDetected = stats.Total - stats.Detected
	for clase, confidences := range confidencesByClass {
		stats.AvgConfidenceByClass[clase] = gen.Mean(confidences)
	}

	www.SendJSON(w, &stats)
}
