package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

// withPHYs inserts a pHYs chunk with the given density after IHDR.
func withPHYs(t *testing.T, data []byte, dpi float64) []byte {
	t.Helper()
	ppm := uint32(math.Round(dpi / inchesPerMeter))

	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:4], ppm)
	binary.BigEndian.PutUint32(body[4:8], ppm)
	body[8] = 1

	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	typed := append([]byte("pHYs"), body...)
	chunk = append(chunk, typed...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(typed))

	ihdrEnd := len(pngSignature) + 8 + 13 + 4
	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func TestDecode_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(40, 30)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := withPHYs(t, buf.Bytes(), 300)

	d, err := Decode(data, "scan.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Name != "scan.png" {
		t.Errorf("Name = %q", d.Name)
	}
	if d.Image.Bounds().Dx() != 40 || d.Image.Bounds().Dy() != 30 {
		t.Errorf("bounds = %v", d.Image.Bounds())
	}

	md := d.Metadata
	if md.Format != "png" {
		t.Errorf("Format = %q, want png", md.Format)
	}
	if md.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", md.BitDepth)
	}
	if math.Abs(md.DPIX-300) > 0.5 || math.Abs(md.DPIY-300) > 0.5 {
		t.Errorf("DPI = %.2f x %.2f, want 300", md.DPIX, md.DPIY)
	}
	if md.Compression != "deflate" {
		t.Errorf("Compression = %q", md.Compression)
	}
}

func TestDecode_PNG16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	d, err := Decode(buf.Bytes(), "deep.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Metadata.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", d.Metadata.BitDepth)
	}
	if d.Metadata.DPIX != 0 {
		t.Errorf("DPI should be unknown without pHYs, got %f", d.Metadata.DPIX)
	}
}

func TestDecode_JPEGQuality(t *testing.T) {
	tests := []struct {
		quality int
		lo, hi  float64
	}{
		{90, 0.85, 0.95},
		{50, 0.45, 0.55},
		{20, 0.15, 0.25},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, testImage(64, 64), &jpeg.Options{Quality: tt.quality}); err != nil {
			t.Fatalf("encode: %v", err)
		}

		d, err := Decode(buf.Bytes(), "photo.jpg")
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if d.Metadata.Format != "jpeg" {
			t.Errorf("Format = %q, want jpeg", d.Metadata.Format)
		}
		if q := d.Metadata.JPEGQuality; q < tt.lo || q > tt.hi {
			t.Errorf("quality %d: estimate %.3f outside [%.2f, %.2f]", tt.quality, q, tt.lo, tt.hi)
		}
	}
}

func TestDecode_JFIFDensity(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(16, 16), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := buf.Bytes()

	// APP0 JFIF 1.01, dots per inch, 200x200
	app0 := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x01, 0x00, 0xC8, 0x00, 0xC8, 0x00, 0x00}
	data := append(append(append([]byte{}, raw[:2]...), app0...), raw[2:]...)

	d, err := Decode(data, "jfif.jpg")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Metadata.DPIX != 200 || d.Metadata.DPIY != 200 {
		t.Errorf("DPI = %v x %v, want 200", d.Metadata.DPIX, d.Metadata.DPIY)
	}
}

func TestDecode_TIFF(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(20, 10), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	d, err := Decode(buf.Bytes(), "page.tif")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Metadata.Format != "tiff" {
		t.Errorf("Format = %q, want tiff", d.Metadata.Format)
	}
	if d.Metadata.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", d.Metadata.BitDepth)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is not an image")},
		{"truncated png", tinyPNG(t)[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, "bad.png")
			if err == nil {
				t.Fatal("Expected error")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeInput) {
				t.Errorf("Expected input error, got %v", err)
			}
		})
	}
}

func TestDecoded_Downscale(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(400, 300)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	d, err := Decode(withPHYs(t, buf.Bytes(), 300), "big.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	original := d.Metadata

	d.Downscale(0)
	if d.Image.Bounds().Dx() != 400 {
		t.Fatal("Downscale(0) must be a no-op")
	}

	d.Downscale(30000)
	b := d.Image.Bounds()
	if b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("downscaled to %dx%d, want 200x150", b.Dx(), b.Dy())
	}
	if math.Abs(d.Metadata.DPIX-150) > 0.5 {
		t.Errorf("DPI after downscale = %f, want 150", d.Metadata.DPIX)
	}
	if math.Abs(original.DPIX-300) > 0.5 {
		t.Error("Downscale modified the original metadata")
	}
	if math.Abs(d.Scale-0.5) > 1e-9 {
		t.Errorf("Scale = %f, want 0.5", d.Scale)
	}
}

func TestRouter_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.png")
	if err := os.WriteFile(path, tinyPNG(t), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRouter()
	for _, loc := range []string{path, "file://" + path} {
		d, err := r.Load(context.Background(), loc)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", loc, err)
		}
		if d.Name != "doc.png" {
			t.Errorf("Name = %q, want doc.png", d.Name)
		}
	}
}

func TestRouter_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(garbage, []byte("nope"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name     string
		location string
		errType  apperrors.ErrorType
	}{
		{"missing file", filepath.Join(dir, "missing.png"), apperrors.ErrorTypeNotFound},
		{"undecodable", garbage, apperrors.ErrorTypeInput},
		{"unsupported scheme", "ftp://example.com/a.png", apperrors.ErrorTypeValidation},
		{"azure not configured", "azblob://scans/a.png", apperrors.ErrorTypeValidation},
	}

	r := NewRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Load(context.Background(), tt.location)
			if !apperrors.IsType(err, tt.errType) {
				t.Errorf("Expected %s error, got %v", tt.errType, err)
			}
		})
	}
}

func TestNameOf(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"/data/scans/a.png", "a.png"},
		{"relative/b.tif", "b.tif"},
		{"file:///tmp/c.jpg", "c.jpg"},
		{"https://example.com/images/d.png?sig=abc", "d.png"},
		{"azblob://container/folder/e.bmp", "e.bmp"},
	}

	for _, tt := range tests {
		if got := NameOf(tt.location); got != tt.want {
			t.Errorf("NameOf(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}

func TestParseBlobLocation(t *testing.T) {
	container, blob, err := ParseBlobLocation("azblob://scans/2024/page-1.tif")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if container != "scans" || blob != "2024/page-1.tif" {
		t.Errorf("got %q %q", container, blob)
	}

	for _, bad := range []string{"azblob://scans", "https://scans/x.png", "azblob:///x.png"} {
		if _, _, err := ParseBlobLocation(bad); err == nil {
			t.Errorf("ParseBlobLocation(%q) should fail", bad)
		}
	}
}
