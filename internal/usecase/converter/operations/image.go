package operations

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"upload-converter/internal/domain"
)

// DefaultMaxPixels bounds the canvas Decode is willing to allocate.
const DefaultMaxPixels = 100_000_000

var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// Image is the decoded form of one upload. It lives only for the duration of a
// single conversion and must be released by its owner.
type Image struct {
	pixels      image.Image
	Format      string
	Orientation domain.Orientation
}

// NewImage wraps an already decoded buffer.
func NewImage(pixels image.Image, orientation domain.Orientation) *Image {
	return &Image{
		pixels:      pixels,
		Orientation: orientation,
	}
}

// Decode decodes data with whichever image codec is registered for it and
// reads the EXIF orientation alongside. The header is checked first, so a
// canvas larger than maxPixels is refused before any pixel buffer exists.
// A maxPixels of zero disables the check.
func Decode(data []byte, maxPixels int) (*Image, error) {
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if maxPixels > 0 && int64(header.Width)*int64(header.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%dx%d over %d pixels: %w", header.Width, header.Height, maxPixels, ErrTooManyPixels)
	}

	pixels, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := pixels.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("failed to decode image: empty bounds %v", bounds)
	}

	return &Image{
		pixels:      pixels,
		Format:      format,
		Orientation: ReadOrientation(data, format),
	}, nil
}

func (i *Image) Pixels() image.Image {
	return i.pixels
}

func (i *Image) Width() int {
	if i.pixels == nil {
		return 0
	}
	return i.pixels.Bounds().Dx()
}

func (i *Image) Height() int {
	if i.pixels == nil {
		return 0
	}
	return i.pixels.Bounds().Dy()
}

// Release drops the pixel buffer. Safe to call more than once.
func (i *Image) Release() {
	if i == nil {
		return
	}
	i.pixels = nil
}

func (i *Image) Released() bool {
	return i.pixels == nil
}
