package operations

import (
	"fmt"
	"math"

	"github.com/disintegration/imaging"
)

type Resizer struct {
	filter imaging.ResampleFilter
}

func NewResizer() *Resizer {
	return &Resizer{
		filter: imaging.Lanczos,
	}
}

// FitWithin caps width first and then, independently, height, preserving the
// aspect ratio of the source. Dimensions already inside the bounds come back
// untouched. The width is clamped again after the height pass so rounding can
// never push it past maxWidth.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return width, height
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	aspect := float64(width) / float64(height)
	newWidth := float64(width)
	newHeight := float64(height)

	if newWidth > float64(maxWidth) {
		newWidth = float64(maxWidth)
		newHeight = newWidth / aspect
	}

	if newHeight > float64(maxHeight) {
		newHeight = float64(maxHeight)
		newWidth = newHeight * aspect
	}

	w := clamp(int(math.Round(newWidth)), 1, maxWidth)
	h := clamp(int(math.Round(newHeight)), 1, maxHeight)

	return w, h
}

// Process resizes img in place when it exceeds the bounds and reports whether
// it did.
func (r *Resizer) Process(img *Image, maxWidth, maxHeight int) (bool, error) {
	if img.Released() {
		return false, fmt.Errorf("resize on released image")
	}

	width, height := img.Width(), img.Height()
	newWidth, newHeight := FitWithin(width, height, maxWidth, maxHeight)
	if newWidth == width && newHeight == height {
		return false, nil
	}

	resized := imaging.Resize(img.pixels, newWidth, newHeight, r.filter)
	if resized == nil || resized.Bounds().Empty() {
		return false, fmt.Errorf("resize to %dx%d produced an empty image", newWidth, newHeight)
	}

	img.pixels = resized
	return true, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
