//go:build !cgo

package codec

import (
	"image"
	"io"
)

type WebP struct {
	webpFormat
}

func NewWebP() *WebP {
	return &WebP{}
}

func (e *WebP) Available() bool {
	return false
}

func (e *WebP) Encode(w io.Writer, img image.Image, quality int) error {
	return ErrUnavailable
}
