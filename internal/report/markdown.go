package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/anime-shed/doc-inspector-go/internal/batch"
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
	"github.com/anime-shed/doc-inspector-go/internal/sla"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// MarkdownWriter outputs human-readable reports.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// WriteRecord writes the report for one image.
func (w *MarkdownWriter) WriteRecord(rec *models.AnalysisRecord) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Document Quality Report")
	md.PlainText("")
	w.writeOverview(md, rec)
	w.writeCategories(md, rec)
	w.writeActions(md, rec.Global.Actions)
	if rec.SLA != nil {
		w.writeSLA(md, rec.SLA)
	}

	return md.Build()
}

// WriteBatch writes a batch overview followed by one row per image.
func (w *MarkdownWriter) WriteBatch(res *batch.Result) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Batch Quality Report")
	md.PlainText("")
	w.writeBatchSummary(md, res.Summary)
	w.writeBatchResults(md, res.Items)
	w.writeBatchFailures(md, res.Items)
	if res.Summary.SLA != nil && res.Summary.SLA.Enabled {
		w.writeSLASummary(md, res.Summary.SLA)
	}

	return md.Build()
}

func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, rec *models.AnalysisRecord) {
	g := rec.Global
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Image", "`" + rec.ImageID + "`"},
			{"File", "`" + rec.FilePath + "`"},
			{"Pixels", fmt.Sprintf("%d x %d", rec.Pixels.W, rec.Pixels.H)},
			{"DPI", fmt.Sprintf("%.0f x %.0f", rec.DPI.X, rec.DPI.Y)},
			{"Score", fmt.Sprintf("%.3f", g.Score)},
			{"Stars", fmt.Sprintf("%s (%d/4)", starDisplay(g.Stars), g.Stars)},
			{"Status", statusEmoji(string(g.Status)) + " " + strings.ToUpper(string(g.Status))},
			{"Analyzed", rec.AnalyzedAt.Format(time.RFC3339)},
		},
	})
	md.PlainText("")

	switch {
	case g.CriticalFail:
		md.Caution("A critical category failed. The image must be recaptured.")
	case g.Status == scoring.Fail:
		md.Warning("The image does not meet the quality threshold.")
	case g.Status == scoring.Warn:
		md.Note("The image is usable but some categories need attention.")
	default:
		md.Tip("All quality checks passed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, rec *models.AnalysisRecord) {
	md.H2("Category Results")
	md.PlainText("")

	rows := make([][]string, 0, len(rec.CategoryStatus))
	for _, name := range config.Categories() {
		cat := metrics.Category(name)
		status, ok := rec.CategoryStatus[cat]
		if !ok {
			continue
		}
		note := "-"
		if msg, failed := rec.CategoryErrors[cat]; failed {
			note = msg
		}
		rows = append(rows, []string{
			categoryTitle(name),
			statusEmoji(string(status)) + " " + strings.ToUpper(string(status)),
			note,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeActions(md *markdown.Markdown, actions []scoring.ActionItem) {
	md.H2("Recommended Actions")
	md.PlainText("")

	if len(actions) == 0 {
		md.PlainText("No issues found.")
		md.PlainText("")
		return
	}
	md.BulletList(ActionMessages(actions)...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeSLA(md *markdown.Markdown, res *sla.Result) {
	md.H2("SLA Compliance")
	md.PlainText("")

	c := res.Compliance
	compliant := "❌ No"
	if c.OverallCompliant {
		compliant = "✅ Yes"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"SLA", res.Name},
			{"Level", string(c.Level)},
			{"Compliant", compliant},
			{"Score", fmt.Sprintf("%.3f", c.Score)},
		},
	})
	md.PlainText("")

	if violations := res.Violations(); len(violations) > 0 {
		rows := make([][]string, len(violations))
		for i, v := range violations {
			rows[i] = []string{v.Requirement, v.Metric, fmt.Sprint(v.Required), fmt.Sprint(v.Actual)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Requirement", "Metric", "Required", "Actual"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(res.Recommendations) > 0 {
		md.BulletList(res.Recommendations...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeBatchSummary(md *markdown.Markdown, s batch.Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Images", strconv.Itoa(s.Total)},
			{"Analyzed", strconv.Itoa(s.Succeeded)},
			{"Errors", strconv.Itoa(s.Failed)},
			{"✅ Pass", strconv.Itoa(s.Statuses[scoring.Pass])},
			{"⚠️ Warn", strconv.Itoa(s.Statuses[scoring.Warn])},
			{"❌ Fail", strconv.Itoa(s.Statuses[scoring.Fail])},
			{"Elapsed", fmt.Sprintf("%.2fs", s.Elapsed)},
		},
	})
	md.PlainText("")

	if s.Failed > 0 {
		md.Warningf("%d image(s) could not be analyzed.", s.Failed)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeBatchResults(md *markdown.Markdown, items []batch.Item) {
	md.H2("Results")
	md.PlainText("")

	rows := make([][]string, 0, len(items))
	var scoreSum float64
	analyzed := 0
	for _, item := range items {
		if !item.OK() {
			continue
		}
		g := item.Record.Global
		scoreSum += g.Score
		analyzed++
		rows = append(rows, []string{
			item.Record.ImageID,
			fmt.Sprintf("%.3f", g.Score),
			starDisplay(g.Stars),
			statusEmoji(string(g.Status)) + " " + string(g.Status),
			strconv.Itoa(len(g.Actions)),
		})
	}

	if analyzed == 0 {
		md.PlainText("No images were analyzed.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Image", "Score", "Stars", "Status", "Actions"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Average score: **%.3f**", scoreSum/float64(analyzed))
	md.PlainText("")
}

func (w *MarkdownWriter) writeBatchFailures(md *markdown.Markdown, items []batch.Item) {
	var rows [][]string
	for _, item := range items {
		if item.OK() || item.Failure == nil {
			continue
		}
		rows = append(rows, []string{item.Failure.ImageID, "`" + item.Failure.FilePath + "`", item.Failure.Error})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Image", "File", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSLASummary(md *markdown.Markdown, s *sla.Summary) {
	md.H2("SLA Compliance")
	md.PlainText("")

	rows := [][]string{
		{"SLA", s.Name},
		{"Analyzed", strconv.Itoa(s.TotalAnalyzed)},
		{"Fully Compliant", strconv.Itoa(s.FullyCompliant)},
		{"Compliance Rate", fmt.Sprintf("%.1f%%", s.OverallComplianceRate)},
	}
	for _, level := range sla.Levels() {
		rows = append(rows, []string{
			string(level),
			fmt.Sprintf("%d (%.1f%%)", s.Breakdown[level], s.Percentages[level]),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// categoryTitle turns "border_background" into "Border Background".
func categoryTitle(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
