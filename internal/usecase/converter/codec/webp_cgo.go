//go:build cgo

package codec

import (
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
)

// WebP encodes lossy WebP through libwebp.
type WebP struct {
	webpFormat
}

func NewWebP() *WebP {
	return &WebP{}
}

func (e *WebP) Available() bool {
	return true
}

func (e *WebP) Encode(w io.Writer, img image.Image, quality int) error {
	opts := &webp.Options{
		Lossless: false,
		Quality:  float32(quality),
	}
	if err := webp.Encode(w, img, opts); err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return nil
}
