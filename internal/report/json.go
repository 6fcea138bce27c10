package report

import (
	"encoding/json"
	"io"

	"github.com/anime-shed/doc-inspector-go/internal/batch"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// JSONWriter outputs records and batches as JSON documents.
type JSONWriter struct {
	output io.Writer
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents output by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an option
// says otherwise.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *JSONWriter) WriteRecord(rec *models.AnalysisRecord) error {
	return w.encode(rec)
}

func (w *JSONWriter) WriteBatch(res *batch.Result) error {
	return w.encode(res)
}

func (w *JSONWriter) encode(v interface{}) error {
	enc := json.NewEncoder(w.output)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	return enc.Encode(v)
}
