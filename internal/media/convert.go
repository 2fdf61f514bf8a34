// Package media reconciles a product's session image list against object
// storage: pending files are converted to the target format and uploaded,
// persisted references are left alone.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ContentType is the MIME type of converted product images.
const ContentType = "image/jpeg"

// ConvertOptions control the target quality and scale of a conversion.
// Both are fractions in (0, 1].
type ConvertOptions struct {
	Quality float64
	Scale   float64
}

// DefaultConvertOptions matches the storefront's fixed conversion profile.
var DefaultConvertOptions = ConvertOptions{Quality: 0.8, Scale: 0.75}

// Converter turns a raw uploaded image into the target storage format.
// It is pure and may fail on undecodable input.
type Converter interface {
	Convert(data []byte, opts ConvertOptions) ([]byte, error)
}

// JPEGConverter decodes jpeg/png/gif/webp input, scales it down and
// re-encodes as JPEG.
type JPEGConverter struct{}

func (JPEGConverter) Convert(data []byte, opts ConvertOptions) ([]byte, error) {
	if opts.Quality <= 0 || opts.Quality > 1 {
		return nil, fmt.Errorf("invalid quality %v", opts.Quality)
	}
	if opts.Scale <= 0 || opts.Scale > 1 {
		return nil, fmt.Errorf("invalid scale %v", opts.Scale)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w := int(float64(b.Dx()) * opts.Scale)
	h := int(float64(b.Dy()) * opts.Scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: int(opts.Quality * 100)}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
