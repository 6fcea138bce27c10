package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/anime-shed/doc-inspector-go/internal/batch"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// CSVColumns is the comparison table header.
var CSVColumns = []string{
	"image_id", "file_path",
	"px_w", "px_h", "dpi_x", "dpi_y",
	"lap_var", "global_contrast", "skew_deg",
	"bg_median_lum", "left_ratio", "right_ratio", "top_ratio", "bottom_ratio",
	"noise_std", "illum_uniformity", "gray_deltaE", "hue_cast_deg",
	"format", "bit_depth",
	"score", "stars", "status",
}

// CSVWriter outputs one comparison row per image. The header is written
// once, before the first row.
type CSVWriter struct {
	w             *csv.Writer
	headerWritten bool
}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(output)}
}

func (w *CSVWriter) WriteRecord(rec *models.AnalysisRecord) error {
	if err := w.header(); err != nil {
		return err
	}
	if err := w.w.Write(recordRow(rec)); err != nil {
		return err
	}
	return w.flush()
}

// WriteBatch writes a row per item in batch order. Failed images keep
// their id and path, leave the metric cells empty and have status "error".
func (w *CSVWriter) WriteBatch(res *batch.Result) error {
	if err := w.header(); err != nil {
		return err
	}
	for _, item := range res.Items {
		var row []string
		if item.OK() {
			row = recordRow(item.Record)
		} else {
			row = errorRow(item.ImageID(), item.FilePath())
		}
		if err := w.w.Write(row); err != nil {
			return err
		}
	}
	return w.flush()
}

func (w *CSVWriter) header() error {
	if w.headerWritten {
		return nil
	}
	w.headerWritten = true
	return w.w.Write(CSVColumns)
}

func (w *CSVWriter) flush() error {
	w.w.Flush()
	return w.w.Error()
}

func errorRow(imageID, filePath string) []string {
	row := make([]string, len(CSVColumns))
	row[0] = imageID
	row[1] = filePath
	row[len(row)-1] = "error"
	return row
}

// recordRow flattens rec into CSVColumns order. Cells of categories that
// failed to compute are empty.
func recordRow(rec *models.AnalysisRecord) []string {
	row := make([]string, 0, len(CSVColumns))
	row = append(row,
		rec.ImageID,
		rec.FilePath,
		strconv.Itoa(rec.Pixels.W),
		strconv.Itoa(rec.Pixels.H),
		num(rec.DPI.X),
		num(rec.DPI.Y),
	)

	if r, ok := recordOf[metrics.SharpnessRecord](rec, metrics.Sharpness); ok {
		row = append(row, num(r.LaplacianVar))
	} else {
		row = append(row, "")
	}

	if r, ok := recordOf[metrics.ContrastRecord](rec, metrics.Contrast); ok {
		row = append(row, num(r.GlobalContrast))
	} else {
		row = append(row, "")
	}

	if r, ok := recordOf[metrics.GeometryRecord](rec, metrics.Geometry); ok {
		row = append(row, num(r.SkewAngleAbs))
	} else {
		row = append(row, "")
	}

	if r, ok := recordOf[metrics.BorderBackgroundRecord](rec, metrics.BorderBackground); ok {
		row = append(row,
			num(r.BgMedianLum),
			num(r.LeftMarginRatio),
			num(r.RightMarginRatio),
			num(r.TopMarginRatio),
			num(r.BottomMarginRatio),
		)
	} else {
		row = append(row, "", "", "", "", "")
	}

	if r, ok := recordOf[metrics.NoiseRecord](rec, metrics.Noise); ok {
		row = append(row, num(r.BgNoiseStd))
	} else {
		row = append(row, "")
	}

	if r, ok := recordOf[metrics.ExposureRecord](rec, metrics.Exposure); ok {
		row = append(row, num(r.IlluminationUniformity.Ratio))
	} else {
		row = append(row, "")
	}

	if r, ok := recordOf[metrics.ColorRecord](rec, metrics.Color); ok {
		deltaE := ""
		if r.GrayDeltaE != nil {
			deltaE = num(*r.GrayDeltaE)
		}
		row = append(row, deltaE, num(r.HueCastDegrees))
	} else {
		row = append(row, "", "")
	}

	if r, ok := recordOf[metrics.FormatIntegrityRecord](rec, metrics.FormatIntegrity); ok {
		row = append(row, r.FormatName, strconv.Itoa(r.BitDepth))
	} else {
		row = append(row, "", "")
	}

	return append(row,
		num(rec.Global.Score),
		strconv.Itoa(rec.Global.Stars),
		string(rec.Global.Status),
	)
}

// recordOf returns the category record when it was computed.
func recordOf[T any](rec *models.AnalysisRecord, cat metrics.Category) (*T, bool) {
	r, ok := any(rec.Metrics[cat]).(*T)
	return r, ok && r != nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
