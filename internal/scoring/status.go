package scoring

import (
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// Status is the verdict for one category or for the whole image.
type Status string

const (
	Pass Status = "pass"
	Warn Status = "warn"
	Fail Status = "fail"
)

// Rank orders statuses fail < warn < pass.
func (s Status) Rank() int {
	switch s {
	case Pass:
		return 2
	case Warn:
		return 1
	default:
		return 0
	}
}

// Value is the contribution of a category with this status to the weighted
// score.
func (s Status) Value() float64 {
	switch s {
	case Pass:
		return 1.0
	case Warn:
		return 0.75
	default:
		return 0.0
	}
}

// worse returns the lower-ranked of a and b.
func worse(a, b Status) Status {
	if b.Rank() < a.Rank() {
		return b
	}
	return a
}

// Severity tags an action item.
type Severity string

const (
	Critical Severity = "critical"
	Advisory Severity = "advisory"
)

// Comparison operators recorded on a Violation. Op describes how actual
// relates to required when the rule trips.
const (
	OpBelow = "<"
	OpAbove = ">"
	OpIs    = "=="
)

// Violation is one threshold a metric crossed. Level is the status the
// crossing produces (warn or fail).
type Violation struct {
	Category metrics.Category `json:"category"`
	Level    Status           `json:"severity"`
	Metric   string           `json:"metric"`
	Op       string           `json:"op"`
	Required float64          `json:"required"`
	Actual   float64          `json:"actual"`
}

// ActionItem asks for one category to be fixed.
type ActionItem struct {
	Category   metrics.Category `json:"category"`
	Severity   Severity         `json:"severity"`
	Violations []Violation      `json:"violations,omitempty"`
}
