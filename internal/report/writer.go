// Package report renders analysis records and batch results for people and
// tools: Markdown for reading, CSV for side-by-side comparison and JSON for
// integration.
package report

import (
	"io"
	"strings"

	"github.com/anime-shed/doc-inspector-go/internal/batch"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// Writer outputs analysis results in one format.
type Writer interface {
	WriteRecord(rec *models.AnalysisRecord) error
	WriteBatch(res *batch.Result) error
}

// Format names an output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatCSV, FormatJSON}
}

// ParseFormat accepts a format name case-insensitively. "markdown" is an
// alias for md.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", apperrors.NewValidationError("unknown report format "+name, nil)
}

// NewWriter returns the writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	}
	return nil, apperrors.NewValidationError("unknown report format "+string(format), nil)
}
