package integrations

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

type SpriteSettings struct {
	// Sprites are fitted into a Size x Size box
	Size int
	// "png" keeps transparency, "jpeg" flattens onto Background
	Format     string
	Quality    int
	Background color.Color
}

func DefaultSpriteSettings() SpriteSettings {
	return SpriteSettings{
		Size:       256,
		Format:     "png",
		Quality:    90,
		Background: color.White,
	}
}

// SpriteProcessor normalises artwork downloaded from the catalog service
type SpriteProcessor struct {
	settings SpriteSettings
}

func NewSpriteProcessor(settings SpriteSettings) *SpriteProcessor {
	if settings.Size <= 0 {
		settings.Size = DefaultSpriteSettings().Size
	}
	if settings.Background == nil {
		settings.Background = color.White
	}
	return &SpriteProcessor{settings: settings}
}

func (p *SpriteProcessor) Process(data []byte) (Sprite, error) {
	content, err := p.ProcessImage(bytes.NewReader(data))
	if err != nil {
		return Sprite{}, err
	}
	return Sprite{Content: content, ContentType: p.contentType()}, nil
}

// ProcessImage decodes, fits and re-encodes one sprite
func (p *SpriteProcessor) ProcessImage(input io.Reader) ([]byte, error) {
	img, _, err := image.Decode(input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	bounds := img.Bounds()
	width, height := p.calculateDimensions(bounds.Dx(), bounds.Dy())

	var processed image.Image = img
	if width != bounds.Dx() || height != bounds.Dy() {
		processed = p.resize(img, width, height)
	}

	if p.settings.Format == "jpeg" || p.settings.Format == "jpg" {
		processed = p.flatten(processed)
	}

	return p.encode(processed)
}

// calculateDimensions fits width x height into the configured box keeping
// the aspect ratio. Small sprites are scaled up.
func (p *SpriteProcessor) calculateDimensions(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	size := p.settings.Size

	widthScale := float64(size) / float64(width)
	heightScale := float64(size) / float64(height)
	scale := widthScale
	if heightScale < widthScale {
		scale = heightScale
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}

func (p *SpriteProcessor) resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	// pixel art stays crisp when enlarged
	var scaler draw.Scaler = draw.CatmullRom
	if width > img.Bounds().Dx() {
		scaler = draw.NearestNeighbor
	}
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	return dst
}

// flatten composites the image over the background colour
func (p *SpriteProcessor) flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(p.settings.Background), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}

func (p *SpriteProcessor) contentType() string {
	if p.settings.Format == "jpeg" || p.settings.Format == "jpg" {
		return "image/jpeg"
	}
	return "image/png"
}

func (p *SpriteProcessor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	switch p.settings.Format {
	case "jpeg", "jpg":
		opts := &jpeg.Options{
			Quality: p.settings.Quality,
		}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, errors.Wrap(err, "failed to encode JPEG")
		}
	case "png", "":
		if err := png.Encode(&buf, img); err != nil {
			return nil, errors.Wrap(err, "failed to encode PNG")
		}
	default:
		return nil, errors.Errorf("unsupported format: %s", p.settings.Format)
	}

	return buf.Bytes(), nil
}
