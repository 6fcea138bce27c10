package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anime-shed/doc-inspector-go/internal/metrics"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
	"github.com/anime-shed/doc-inspector-go/internal/sla"
)

// AnalysisRecord is the complete result of analysing one document image.
// Metrics, CategoryStatus and Global are fully determined by the image and
// the quality configuration; SLA is layered on top and never changes them.
type AnalysisRecord struct {
	ID       string `json:"id,omitempty"`
	ImageID  string `json:"image_id"`
	FilePath string `json:"file_path"`
	Pixels   Pixels `json:"pixels"`
	DPI      DPI    `json:"dpi"`

	// Metadata is what the decoder reported about the file.
	Metadata *metrics.Metadata `json:"metadata,omitempty"`

	// A category whose computer failed maps to null.
	Metrics        map[metrics.Category]metrics.Record `json:"metrics"`
	CategoryStatus map[metrics.Category]scoring.Status `json:"category_status"`
	CategoryErrors map[metrics.Category]string         `json:"category_errors,omitempty"`
	Global         scoring.Global                      `json:"global"`

	SLA *sla.Result `json:"sla,omitempty"`

	ProcessingTimeSec float64   `json:"processing_time_sec"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}

type analysisRecordFields AnalysisRecord

// UnmarshalJSON decodes each metrics entry into the record type of its
// category so a saved record reads back with concrete records.
func (r *AnalysisRecord) UnmarshalJSON(data []byte) error {
	aux := struct {
		*analysisRecordFields
		Metrics map[metrics.Category]json.RawMessage `json:"metrics"`
	}{analysisRecordFields: (*analysisRecordFields)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Metrics = nil
	if aux.Metrics == nil {
		return nil
	}
	r.Metrics = make(map[metrics.Category]metrics.Record, len(aux.Metrics))
	for cat, raw := range aux.Metrics {
		if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			r.Metrics[cat] = nil
			continue
		}
		rec, ok := metrics.NewRecord(cat)
		if !ok {
			return fmt.Errorf("unknown metrics category %q", cat)
		}
		if err := json.Unmarshal(raw, rec); err != nil {
			return fmt.Errorf("decode %s metrics: %w", cat, err)
		}
		r.Metrics[cat] = rec
	}
	return nil
}

// Pixels is the raster size.
type Pixels struct {
	W int `json:"w"`
	H int `json:"h"`
}

// DPI is the effective density used for resolution checks.
type DPI struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ErrorGlobal is the global block reported for an image that could not be
// analysed.
type ErrorGlobal struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
	Stars  int     `json:"stars"`
}

// FailedAnalysis is the batch entry for an image that could not be decoded
// or analysed.
type FailedAnalysis struct {
	ImageID  string      `json:"image_id"`
	FilePath string      `json:"file_path"`
	Error    string      `json:"error"`
	Global   ErrorGlobal `json:"global"`
}

// NewFailedAnalysis builds the entry for a per-image failure.
func NewFailedAnalysis(imageID, filePath string, err error) *FailedAnalysis {
	return &FailedAnalysis{
		ImageID:  imageID,
		FilePath: filePath,
		Error:    err.Error(),
		Global:   ErrorGlobal{Status: "error"},
	}
}

// StoredAnalysis is a persisted AnalysisRecord. Record holds the JSON
// encoding exactly as it was saved.
type StoredAnalysis struct {
	ID         string    `json:"id"`
	ImageID    string    `json:"image_id"`
	FilePath   string    `json:"file_path"`
	Score      float64   `json:"score"`
	Stars      int       `json:"stars"`
	Status     string    `json:"status"`
	Profile    string    `json:"profile,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	Record     []byte    `json:"-"`
}
