package integrations

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pkg/errors"
)

func decode(t *testing.T, content []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	return img
}

func TestSpriteProcessorDownscales(t *testing.T) {
	p := NewSpriteProcessor(SpriteSettings{Size: 32, Format: "png"})

	sprite, err := p.Process(testPNG(t, 128, 64))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if sprite.ContentType != "image/png" {
		t.Errorf("Expected image/png, got %s", sprite.ContentType)
	}

	bounds := decode(t, sprite.Content).Bounds()
	if bounds.Dx() != 32 || bounds.Dy() != 16 {
		t.Errorf("Expected 32x16, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestSpriteProcessorUpscales(t *testing.T) {
	p := NewSpriteProcessor(SpriteSettings{Size: 40})

	sprite, err := p.Process(testPNG(t, 10, 20))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	bounds := decode(t, sprite.Content).Bounds()
	if bounds.Dx() != 20 || bounds.Dy() != 40 {
		t.Errorf("Expected 20x40, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestSpriteProcessorJPEGFlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.Set(4, 4, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	p := NewSpriteProcessor(SpriteSettings{Size: 8, Format: "jpeg", Quality: 95})
	sprite, err := p.Process(buf.Bytes())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if sprite.ContentType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", sprite.ContentType)
	}

	r, g, b, _ := decode(t, sprite.Content).At(0, 0).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("Expected transparent corner to become white, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestSpriteProcessorRejectsGarbage(t *testing.T) {
	p := NewSpriteProcessor(DefaultSpriteSettings())

	_, err := p.Process([]byte("not an image"))
	if err == nil {
		t.Fatal("Expected decode error")
	}
	if errors.Cause(err) != image.ErrFormat {
		t.Errorf("Expected cause image.ErrFormat, got %v", errors.Cause(err))
	}
	if err.Error() != "failed to decode image: "+image.ErrFormat.Error() {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestSpriteProcessorUnsupportedFormat(t *testing.T) {
	p := NewSpriteProcessor(SpriteSettings{Size: 4, Format: "tiff"})

	if _, err := p.Process(testPNG(t, 4, 4)); err == nil {
		t.Error("Expected unsupported format error")
	}
}

func TestCalculateDimensions(t *testing.T) {
	p := NewSpriteProcessor(SpriteSettings{Size: 100})

	cases := []struct {
		w, h, wantW, wantH int
	}{
		{200, 100, 100, 50},
		{100, 100, 100, 100},
		{50, 25, 100, 50},
		{1000, 1, 100, 1},
	}
	for _, tc := range cases {
		w, h := p.calculateDimensions(tc.w, tc.h)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("calculateDimensions(%d, %d) = %dx%d, want %dx%d", tc.w, tc.h, w, h, tc.wantW, tc.wantH)
		}
	}
}
