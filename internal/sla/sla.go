// Package sla checks an analysis against a service-level agreement: a
// second threshold set, configured separately from scoring, that never
// changes the scoring result it reads.
package sla

import (
	"fmt"
	"strings"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
)

// Level is the score-banded compliance classification.
type Level string

const (
	Excellent    Level = "excellent"
	Compliant    Level = "compliant"
	Warning      Level = "warning"
	NonCompliant Level = "non_compliant"
)

// Levels lists the compliance levels from best to worst.
func Levels() []Level {
	return []Level{Excellent, Compliant, Warning, NonCompliant}
}

// maxTargetRecommendations caps the performance-target lines in
// Result.Recommendations.
const maxTargetRecommendations = 3

// Violation is one unmet requirement. Required and Actual are numbers for
// score and metric targets and status names for required categories.
type Violation struct {
	Requirement string `json:"requirement"`
	Metric      string `json:"metric"`
	Required    any    `json:"required"`
	Actual      any    `json:"actual"`
	Description string `json:"description"`
}

type MinimumScore struct {
	Required  float64 `json:"required"`
	Actual    float64 `json:"actual"`
	Compliant bool    `json:"compliant"`
}

type CategoryFailures struct {
	MaxAllowed int  `json:"max_allowed"`
	Actual     int  `json:"actual"`
	Compliant  bool `json:"compliant"`
}

type RequiredCategories struct {
	Required   []string    `json:"required"`
	Violations []Violation `json:"violations"`
	Compliant  bool        `json:"compliant"`
}

type PerformanceTargets struct {
	Violations []Violation `json:"violations"`
	Compliant  bool        `json:"compliant"`
}

type RequirementsMet struct {
	MinimumScore       MinimumScore       `json:"minimum_score"`
	CategoryFailures   CategoryFailures   `json:"category_failures"`
	RequiredCategories RequiredCategories `json:"required_categories"`
	PerformanceTargets PerformanceTargets `json:"performance_targets"`
}

type Compliance struct {
	Level            Level           `json:"level"`
	Description      string          `json:"description"`
	OverallCompliant bool            `json:"overall_compliant"`
	Score            float64         `json:"score"`
	RequirementsMet  RequirementsMet `json:"requirements_met"`
}

// Result is the SLA report for one image.
type Result struct {
	Enabled         bool       `json:"enabled"`
	Name            string     `json:"sla_name"`
	Description     string     `json:"sla_description"`
	Compliance      Compliance `json:"compliance"`
	Recommendations []string   `json:"recommendations"`
}

// Violations returns every unmet requirement in evaluation order.
func (r *Result) Violations() []Violation {
	req := r.Compliance.RequirementsMet
	var out []Violation
	if !req.MinimumScore.Compliant {
		out = append(out, Violation{
			Requirement: "minimum_score",
			Metric:      "score",
			Required:    req.MinimumScore.Required,
			Actual:      req.MinimumScore.Actual,
			Description: fmt.Sprintf("Overall score below SLA minimum (%.3f < %g)", req.MinimumScore.Actual, req.MinimumScore.Required),
		})
	}
	if !req.CategoryFailures.Compliant {
		out = append(out, Violation{
			Requirement: "category_failures",
			Metric:      "fail_count",
			Required:    req.CategoryFailures.MaxAllowed,
			Actual:      req.CategoryFailures.Actual,
			Description: fmt.Sprintf("Too many failing categories (%d > %d)", req.CategoryFailures.Actual, req.CategoryFailures.MaxAllowed),
		})
	}
	out = append(out, req.RequiredCategories.Violations...)
	return append(out, req.PerformanceTargets.Violations...)
}

// Evaluator checks results against one SLA configuration.
type Evaluator struct {
	cfg config.SLAConfig
}

// NewEvaluator binds an evaluator to the SLA section of cfg.
func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{cfg: cfg.SLA}
}

// Enabled reports whether Evaluate produces results.
func (e *Evaluator) Enabled() bool {
	return e.cfg.Enabled
}

// Evaluate checks one analysis. It returns nil when the SLA is disabled.
// Its inputs are only read.
func (e *Evaluator) Evaluate(records map[metrics.Category]metrics.Record, statuses map[metrics.Category]scoring.Status, score float64) *Result {
	if !e.cfg.Enabled {
		return nil
	}
	req := e.cfg.Requirements

	met := RequirementsMet{
		MinimumScore: MinimumScore{
			Required:  req.MinOverallScore,
			Actual:    score,
			Compliant: score >= req.MinOverallScore,
		},
		RequiredCategories: e.requiredCategories(statuses),
		PerformanceTargets: e.performanceTargets(records),
	}

	fails := 0
	for _, s := range statuses {
		if s == scoring.Fail {
			fails++
		}
	}
	met.CategoryFailures = CategoryFailures{
		MaxAllowed: req.MaxFailCategories,
		Actual:     fails,
		Compliant:  fails <= req.MaxFailCategories,
	}

	level, desc := e.level(score)
	res := &Result{
		Enabled:     true,
		Name:        e.cfg.Name,
		Description: e.cfg.Description,
		Compliance: Compliance{
			Level:       level,
			Description: desc,
			OverallCompliant: met.MinimumScore.Compliant &&
				met.CategoryFailures.Compliant &&
				met.RequiredCategories.Compliant &&
				met.PerformanceTargets.Compliant,
			Score:           score,
			RequirementsMet: met,
		},
	}
	res.Recommendations = recommendations(res.Compliance)
	return res
}

func (e *Evaluator) requiredCategories(statuses map[metrics.Category]scoring.Status) RequiredCategories {
	rc := RequiredCategories{
		Required:   append([]string{}, e.cfg.Requirements.RequiredPassCategories...),
		Violations: []Violation{},
	}
	for _, name := range rc.Required {
		s, ok := statuses[metrics.Category(name)]
		if ok && s == scoring.Pass {
			continue
		}
		actual := "missing"
		if ok {
			actual = string(s)
		}
		rc.Violations = append(rc.Violations, Violation{
			Requirement: "required_category",
			Metric:      name,
			Required:    string(scoring.Pass),
			Actual:      actual,
			Description: fmt.Sprintf("Category %s must pass (got %s)", name, actual),
		})
	}
	rc.Compliant = len(rc.Violations) == 0
	return rc
}

func (e *Evaluator) performanceTargets(records map[metrics.Category]metrics.Record) PerformanceTargets {
	pt := PerformanceTargets{Violations: []Violation{}}
	targets := e.cfg.Requirements.PerformanceTargets
	for _, key := range config.PerformanceTargets() {
		want, ok := targets[key]
		if !ok {
			continue
		}
		if v := checkTarget(key, want, records); v != nil {
			pt.Violations = append(pt.Violations, *v)
		}
	}
	pt.Compliant = len(pt.Violations) == 0
	return pt
}

func (e *Evaluator) level(score float64) (Level, string) {
	cl := e.cfg.ComplianceLevels
	switch {
	case score >= cl.Excellent.MinScore:
		return Excellent, cl.Excellent.Description
	case score >= cl.Compliant.MinScore:
		return Compliant, cl.Compliant.Description
	case score >= cl.Warning.MinScore:
		return Warning, cl.Warning.Description
	default:
		return NonCompliant, cl.NonCompliant.Description
	}
}

func recommendations(c Compliance) []string {
	req := c.RequirementsMet
	out := []string{}

	if !req.MinimumScore.Compliant {
		out = append(out, fmt.Sprintf("🎯 SLA REQUIREMENT: Achieve minimum overall score of %.1f%% for SLA compliance",
			req.MinimumScore.Required*100))
	}
	if !req.CategoryFailures.Compliant {
		out = append(out, fmt.Sprintf("🎯 SLA REQUIREMENT: Reduce failing categories to %d or fewer for SLA compliance",
			req.CategoryFailures.MaxAllowed))
	}
	if !req.RequiredCategories.Compliant {
		names := make([]string, 0, len(req.RequiredCategories.Violations))
		for _, v := range req.RequiredCategories.Violations {
			names = append(names, v.Metric)
		}
		out = append(out, fmt.Sprintf("🎯 SLA REQUIREMENT: These critical categories must pass: %s", strings.Join(names, ", ")))
	}
	for i, v := range req.PerformanceTargets.Violations {
		if i == maxTargetRecommendations {
			break
		}
		out = append(out, "🎯 SLA TARGET: "+v.Description)
	}

	if c.OverallCompliant {
		out = append(out, "✅ SLA COMPLIANT: All requirements met")
	}
	return out
}
