package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// Decoded is an image ready for analysis together with what its file said
// about itself.
type Decoded struct {
	Name     string
	Image    image.Image
	Metadata *metrics.Metadata
	// Scale is the factor applied by Downscale; 1 when untouched.
	Scale float64
}

// Decode decodes data with the registered codecs (PNG, JPEG, GIF, TIFF,
// BMP, WebP) and extracts density, bit depth and compression metadata.
// Data that no codec accepts is an input error.
func Decode(data []byte, name string) (*Decoded, error) {
	if len(data) == 0 {
		return nil, apperrors.NewInputError(fmt.Sprintf("%s: empty image data", name), nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("%s: cannot decode image", name), err)
	}
	if img.Bounds().Empty() {
		return nil, apperrors.NewInputError(fmt.Sprintf("%s: image has no pixels", name), nil)
	}

	return &Decoded{
		Name:     name,
		Image:    img,
		Metadata: ExtractMetadata(data, format, img),
		Scale:    1,
	}, nil
}

// Downscale shrinks the image so it holds at most maxPixels pixels. Density
// is scaled by the same factor so resolution checks see the physical
// sampling that is actually analysed. maxPixels <= 0 is a no-op.
func (d *Decoded) Downscale(maxPixels int64) {
	if maxPixels <= 0 {
		return
	}
	b := d.Image.Bounds()
	n := int64(b.Dx()) * int64(b.Dy())
	if n <= maxPixels {
		return
	}

	factor := math.Sqrt(float64(maxPixels) / float64(n))
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), d.Image, b, draw.Src, nil)

	d.Image = dst
	d.Scale *= factor
	if d.Metadata != nil {
		md := *d.Metadata
		md.DPIX *= factor
		md.DPIY *= factor
		d.Metadata = &md
	}
}
