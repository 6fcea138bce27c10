package storage

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

const (
	inchesPerMeter = 0.0254
	cmPerInch      = 2.54
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ExtractMetadata reads format, density, bit depth and compression from the
// raw file. format is the name reported by image.Decode. Fields the file
// does not carry stay zero.
func ExtractMetadata(data []byte, format string, img image.Image) *metrics.Metadata {
	md := &metrics.Metadata{
		Format:   metrics.NormalizeFormat(format),
		BitDepth: bitDepthOf(img.ColorModel()),
	}

	switch md.Format {
	case "png":
		md.Compression = "deflate"
		readPNG(data, md)
	case "jpeg":
		md.Compression = "jpeg"
		readJPEG(data, md)
	case "gif":
		md.Compression = "lzw"
	case "bmp":
		md.Compression = "none"
	case "webp":
		md.Compression = "webp"
	}

	// EXIF fills whatever the container headers left unset. TIFF keeps its
	// density and sample depth in the same IFD structure.
	readEXIF(data, md)

	return md
}

// bitDepthOf returns bits per channel for the decoded colour model.
func bitDepthOf(m color.Model) int {
	switch m {
	case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model, color.Alpha16Model:
		return 16
	}
	if p, ok := m.(color.Palette); ok {
		switch n := len(p); {
		case n <= 2:
			return 1
		case n <= 4:
			return 2
		case n <= 16:
			return 4
		}
	}
	return 8
}

// readPNG walks the chunk list for IHDR bit depth and pHYs density.
func readPNG(data []byte, md *metrics.Metadata) {
	if !bytes.HasPrefix(data, pngSignature) {
		return
	}
	for off := len(pngSignature); off+8 <= len(data); {
		length := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])
		body := off + 8
		if length < 0 || body+length > len(data) {
			return
		}
		chunk := data[body : body+length]

		switch typ {
		case "IHDR":
			if len(chunk) >= 9 {
				md.BitDepth = int(chunk[8])
			}
		case "pHYs":
			// unit 1 is pixels per metre; 0 only gives an aspect ratio
			if len(chunk) >= 9 && chunk[8] == 1 {
				md.DPIX = float64(binary.BigEndian.Uint32(chunk[0:4])) * inchesPerMeter
				md.DPIY = float64(binary.BigEndian.Uint32(chunk[4:8])) * inchesPerMeter
			}
		case "IDAT", "IEND":
			return
		}
		off = body + length + 4 // crc
	}
}

// readJPEG walks marker segments up to the first scan for JFIF density and
// the luminance quantisation table.
func readJPEG(data []byte, md *metrics.Metadata) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return
	}
	for off := 2; off+4 <= len(data); {
		if data[off] != 0xFF {
			return
		}
		marker := data[off+1]
		if marker == 0xFF {
			off++
			continue
		}
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			off += 2
			continue
		}
		if marker == 0xDA || marker == 0xD9 {
			return
		}

		length := int(binary.BigEndian.Uint16(data[off+2:]))
		if length < 2 || off+2+length > len(data) {
			return
		}
		seg := data[off+4 : off+2+length]

		switch marker {
		case 0xE0:
			readJFIF(seg, md)
		case 0xDB:
			if q, ok := estimateJPEGQuality(seg); ok && md.JPEGQuality == 0 {
				md.JPEGQuality = q
			}
		}
		off += 2 + length
	}
}

func readJFIF(seg []byte, md *metrics.Metadata) {
	if len(seg) < 12 || !bytes.HasPrefix(seg, []byte("JFIF\x00")) {
		return
	}
	units := seg[7]
	x := float64(binary.BigEndian.Uint16(seg[8:10]))
	y := float64(binary.BigEndian.Uint16(seg[10:12]))
	switch units {
	case 1:
		md.DPIX, md.DPIY = x, y
	case 2:
		md.DPIX, md.DPIY = x*cmPerInch, y*cmPerInch
	}
}

// readEXIF pulls X/YResolution, ResolutionUnit and BitsPerSample from the
// first IFD carrying them.
func readEXIF(data []byte, md *metrics.Metadata) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return
	}

	var xRes, yRes float64
	unit := uint16(2) // inches when absent
	seen := make(map[string]bool)
	for _, entry := range entries {
		if seen[entry.TagName] {
			continue
		}
		seen[entry.TagName] = true

		switch entry.TagName {
		case "XResolution":
			xRes = rationalValue(entry.Value)
		case "YResolution":
			yRes = rationalValue(entry.Value)
		case "ResolutionUnit":
			if v, ok := entry.Value.([]uint16); ok && len(v) > 0 {
				unit = v[0]
			}
		case "BitsPerSample":
			if v, ok := entry.Value.([]uint16); ok && len(v) > 0 && md.Format == "tiff" {
				md.BitDepth = int(v[0])
			}
		case "Compression":
			if v, ok := entry.Value.([]uint16); ok && len(v) > 0 && md.Compression == "" {
				md.Compression = tiffCompression(v[0])
			}
		}
	}

	if unit == 3 {
		xRes *= cmPerInch
		yRes *= cmPerInch
	}
	if md.DPIX == 0 && md.DPIY == 0 && xRes > 0 && yRes > 0 {
		md.DPIX, md.DPIY = xRes, yRes
	}
}

func rationalValue(v interface{}) float64 {
	r, ok := v.([]exifcommon.Rational)
	if !ok || len(r) == 0 || r[0].Denominator == 0 {
		return 0
	}
	return float64(r[0].Numerator) / float64(r[0].Denominator)
}

func tiffCompression(code uint16) string {
	switch code {
	case 1:
		return "none"
	case 2, 3, 4:
		return "ccitt"
	case 5:
		return "lzw"
	case 6, 7:
		return "jpeg"
	case 8, 32946:
		return "deflate"
	case 32773:
		return "packbits"
	default:
		return "unknown"
	}
}
