package sla

// Summary aggregates SLA results across a batch.
type Summary struct {
	Enabled               bool              `json:"enabled"`
	Name                  string            `json:"sla_name,omitempty"`
	TotalAnalyzed         int               `json:"total_analyzed"`
	FullyCompliant        int               `json:"fully_compliant"`
	OverallComplianceRate float64           `json:"overall_compliance_rate"`
	Breakdown             map[Level]int     `json:"compliance_breakdown"`
	Percentages           map[Level]float64 `json:"compliance_percentages"`
}

// Summarize tallies compliance levels. Nil results (failed images or a
// disabled SLA) are skipped. The compliance rate is the percentage of
// analysed images at excellent or compliant level.
func Summarize(results []*Result) *Summary {
	s := &Summary{
		Breakdown:   make(map[Level]int, 4),
		Percentages: make(map[Level]float64, 4),
	}
	for _, l := range Levels() {
		s.Breakdown[l] = 0
		s.Percentages[l] = 0
	}

	for _, r := range results {
		if r == nil || !r.Enabled {
			continue
		}
		if s.Name == "" {
			s.Name = r.Name
		}
		s.TotalAnalyzed++
		s.Breakdown[r.Compliance.Level]++
		if r.Compliance.OverallCompliant {
			s.FullyCompliant++
		}
	}
	if s.TotalAnalyzed == 0 {
		return s
	}

	s.Enabled = true
	total := float64(s.TotalAnalyzed)
	for _, l := range Levels() {
		s.Percentages[l] = float64(s.Breakdown[l]) / total * 100
	}
	s.OverallComplianceRate = float64(s.Breakdown[Excellent]+s.Breakdown[Compliant]) / total * 100
	return s
}
