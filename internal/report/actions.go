package report

import (
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
)

// actionText is the operator instruction shown for a category that did not
// pass.
var actionText = map[metrics.Category]string{
	metrics.Sharpness:        "Retake photo with better focus or use tripod",
	metrics.Exposure:         "Adjust lighting or camera exposure settings",
	metrics.Contrast:         "Improve lighting conditions or post-process contrast",
	metrics.Geometry:         "Straighten document or adjust camera angle",
	metrics.BorderBackground: "Ensure black background and proper margins",
	metrics.Noise:            "Use lower ISO setting or better lighting",
	metrics.Resolution:       "Scan/photograph at higher DPI/resolution",
	metrics.Completeness:     "Ensure full document is captured with margins",
	metrics.ForeignObjects:   "Remove hands, clips, or other objects from frame",
}

// ActionMessage renders one action item, marked by severity.
func ActionMessage(item scoring.ActionItem) string {
	text, ok := actionText[item.Category]
	if !ok {
		text = "Review " + string(item.Category) + " settings"
	}
	if item.Severity == scoring.Critical {
		return "❌ " + text
	}
	return "⚠️ " + text
}

// ActionMessages renders items in the order given.
func ActionMessages(items []scoring.ActionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = ActionMessage(item)
	}
	return out
}

func statusEmoji(status string) string {
	switch status {
	case string(scoring.Pass):
		return "✅"
	case string(scoring.Warn):
		return "⚠️"
	default:
		return "❌"
	}
}

func starDisplay(stars int) string {
	out := make([]rune, 0, 4)
	for i := 0; i < 4; i++ {
		if i < stars {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}
