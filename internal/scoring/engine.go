// Package scoring turns metric records into category verdicts and a global
// result. The engine is pure: it emits structured violations and action
// items, and rendering them as text is left to the report package.
package scoring

import (
	"fmt"
	"sort"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// Global is the aggregated verdict for one image.
type Global struct {
	Score        float64      `json:"score"`
	Stars        int          `json:"stars"`
	Status       Status       `json:"status"`
	CriticalFail bool         `json:"critical_fail"`
	Actions      []ActionItem `json:"actions"`
}

// CategoryResult is the verdict for one category.
type CategoryResult struct {
	Category   metrics.Category
	Status     Status
	Violations []Violation
	// Err is set when the category could not be evaluated; Status is then
	// Fail.
	Err error
}

// Result is the full output of Engine.Score. It is not modified after
// Score returns.
type Result struct {
	Global     Global
	Categories []CategoryResult
}

// Statuses returns category -> status.
func (r *Result) Statuses() map[metrics.Category]Status {
	out := make(map[metrics.Category]Status, len(r.Categories))
	for _, c := range r.Categories {
		out[c.Category] = c.Status
	}
	return out
}

// Errors returns category -> error message for categories that could not be
// evaluated, or nil when every category was.
func (r *Result) Errors() map[metrics.Category]string {
	var out map[metrics.Category]string
	for _, c := range r.Categories {
		if c.Err == nil {
			continue
		}
		if out == nil {
			out = make(map[metrics.Category]string)
		}
		out[c.Category] = c.Err.Error()
	}
	return out
}

// Violations returns every violation in category order.
func (r *Result) Violations() []Violation {
	var out []Violation
	for _, c := range r.Categories {
		out = append(out, c.Violations...)
	}
	return out
}

// FailCount is the number of failing categories.
func (r *Result) FailCount() int {
	n := 0
	for _, c := range r.Categories {
		if c.Status == Fail {
			n++
		}
	}
	return n
}

// Engine scores metric records against one configuration.
type Engine struct {
	cfg   *config.Config
	rules *RuleSet
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the built-in rule set.
func WithRules(rules *RuleSet) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine creates an engine bound to cfg. cfg is only read.
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, rules: DefaultRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score evaluates records. Every ruled category gets a status; a category
// whose record is missing or nil fails and still counts in the weighted
// mean. Records without a rule are failed the same way.
func (e *Engine) Score(records map[metrics.Category]metrics.Record) *Result {
	res := &Result{}

	for _, cat := range e.categories(records) {
		res.Categories = append(res.Categories, e.evaluate(cat, records[cat]))
	}

	res.Global = e.aggregate(res.Categories)
	return res
}

// categories is the ruled categories in order followed by any unruled
// record categories sorted by name.
func (e *Engine) categories(records map[metrics.Category]metrics.Record) []metrics.Category {
	cats := e.rules.Categories()
	var extra []metrics.Category
	for cat := range records {
		if _, ok := e.rules.Get(cat); !ok {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(cats, extra...)
}

func (e *Engine) evaluate(cat metrics.Category, rec metrics.Record) CategoryResult {
	rule, ok := e.rules.Get(cat)
	if !ok {
		return CategoryResult{
			Category: cat,
			Status:   Fail,
			Err:      apperrors.NewAggregationError(fmt.Sprintf("no scoring rule for category %q", cat), nil),
		}
	}
	if metrics.Missing(rec) {
		return CategoryResult{
			Category: cat,
			Status:   Fail,
			Err:      apperrors.NewAggregationError(fmt.Sprintf("no metric record for category %q", cat), nil),
		}
	}

	status, violations, err := rule.Evaluate(rec, e.cfg)
	if err != nil {
		return CategoryResult{
			Category: cat,
			Status:   Fail,
			Err:      apperrors.NewAggregationError(fmt.Sprintf("evaluating %q", cat), err),
		}
	}
	return CategoryResult{Category: cat, Status: status, Violations: violations}
}

func (e *Engine) aggregate(cats []CategoryResult) Global {
	sc := e.cfg.Scoring
	g := Global{Actions: []ActionItem{}}

	var weighted, total float64
	for _, c := range cats {
		w := sc.Weight(string(c.Category))
		weighted += w * c.Status.Value()
		total += w

		if c.Status == Fail && sc.IsCritical(string(c.Category)) {
			g.CriticalFail = true
		}
		if c.Status != Pass {
			g.Actions = append(g.Actions, actionFor(c))
		}
	}
	if total > 0 {
		g.Score = weighted / total
	}

	switch {
	case g.CriticalFail:
		g.Stars, g.Status = 1, Fail
	case g.Score >= sc.FourStarThreshold:
		g.Stars, g.Status = 4, Pass
	case g.Score >= sc.PassScoreThreshold:
		g.Stars, g.Status = 3, Pass
	case g.Score >= sc.WarnScoreThreshold:
		g.Stars, g.Status = 2, Warn
	default:
		g.Stars, g.Status = 1, Fail
	}
	return g
}

func actionFor(c CategoryResult) ActionItem {
	sev := Advisory
	if c.Status == Fail {
		sev = Critical
	}
	return ActionItem{Category: c.Category, Severity: sev, Violations: c.Violations}
}
