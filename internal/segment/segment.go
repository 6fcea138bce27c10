// Package segment separates the document from its background.
package segment

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

// Segmenter builds the document mask for a frame.
type Segmenter interface {
	Segment(frame *imaging.Frame) *imaging.Mask
}

// segmenter thresholds the gray plane, keeps the largest 8-connected region
// and fills its interior holes. Bright pixels are foreground, which suits
// light pages on a dark background.
type segmenter struct {
	method    string
	blockSize int
	c         float64
}

// New creates a segmenter from the segmentation section of cfg.
func New(cfg config.SegmentationConfig) Segmenter {
	s := &segmenter{
		method:    cfg.Method,
		blockSize: cfg.AdaptiveBlockSize,
		c:         cfg.AdaptiveC,
	}
	if s.method == "" {
		s.method = config.SegmentOtsu
	}
	if s.blockSize < 3 {
		s.blockSize = 11
	}
	return s
}

// Segment never fails: degenerate frames, constant frames and frames
// without foreground yield an all-zero mask of the frame's size.
func (s *segmenter) Segment(frame *imaging.Frame) *imaging.Mask {
	w, h := frame.Width, frame.Height
	if frame.Empty() {
		return imaging.NewMask(w, h)
	}

	t, separable := imaging.Otsu(frame.Gray)
	if !separable {
		return imaging.NewMask(w, h)
	}

	var raw *imaging.Mask
	switch s.method {
	case config.SegmentAdaptive:
		raw = imaging.AdaptiveGaussian(frame.Gray, w, h, s.blockSize, s.c)
	case config.SegmentCombined:
		raw = imaging.Binarize(frame.Gray, w, h, t).
			And(imaging.AdaptiveGaussian(frame.Gray, w, h, s.blockSize, s.c))
	default:
		raw = imaging.Binarize(frame.Gray, w, h, t)
	}

	return imaging.FillHoles(imaging.LargestComponent(raw))
}
