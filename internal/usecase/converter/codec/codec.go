// Package codec holds the target encoder used by the converter. The WebP and
// HEIC codecs need cgo; a build without it reports the capability as missing
// instead of failing to compile.
package codec

import (
	"errors"
	"image"
	"io"

	"upload-converter/internal/domain"
)

var ErrUnavailable = errors.New("image codec unavailable")

type Encoder interface {
	// Available reports whether the encoder can run in this build.
	Available() bool
	Encode(w io.Writer, img image.Image, quality int) error
	Extension() string
	MimeType() string
}

type webpFormat struct{}

func (webpFormat) Extension() string {
	return ".webp"
}

func (webpFormat) MimeType() string {
	return domain.MimeWebP
}
