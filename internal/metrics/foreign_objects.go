package metrics

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

type ForeignObjectsRecord struct {
	Flag    bool    `json:"foreign_object_flag"`
	AreaPct float64 `json:"foreign_object_area_pct"`
	// Objects counts background components above the minimum size.
	Objects        int          `json:"objects_detected"`
	DocumentShadow ShadowRecord `json:"document_shadow"`
}

func (ForeignObjectsRecord) Category() Category { return ForeignObjects }

type foreignObjectsComputer struct{}

// NewForeignObjectsComputer looks for bright objects on the background
// (hands, clips, other sheets) and for the shadow of a raised page.
func NewForeignObjectsComputer() Computer {
	return foreignObjectsComputer{}
}

func (foreignObjectsComputer) Category() Category { return ForeignObjects }

func (foreignObjectsComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	fo := cfg.ForeignObjects
	bg := in.Mask.Invert()
	bgArea := bg.Count()

	rec := &ForeignObjectsRecord{
		DocumentShadow: analyzeShadow(in.Frame, in.Mask, cfg.DocumentShadow),
	}
	if bgArea == 0 {
		return rec, nil
	}

	candidates := imaging.NewMask(bg.Width, bg.Height)
	for i, v := range in.Frame.Gray {
		if bg.Pix[i] != 0 && float64(v) > fo.BackgroundThreshold {
			candidates.Pix[i] = 1
		}
	}

	minArea := float64(bgArea) * fo.MinObjectAreaPct / 100
	foreign := 0
	_, comps := imaging.Label(candidates)
	for _, c := range comps {
		if float64(c.Area) > minArea {
			foreign += c.Area
			rec.Objects++
		}
	}

	rec.AreaPct = float64(foreign) / float64(bgArea) * 100
	rec.Flag = rec.AreaPct > fo.FlagAreaPct
	return rec, nil
}
