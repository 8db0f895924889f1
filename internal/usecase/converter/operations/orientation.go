package operations

import (
	"bytes"
	"sync"

	"upload-converter/internal/domain"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// ExifExtractor pulls the raw EXIF block out of a container format that
// goexif cannot scan on its own.
type ExifExtractor func(data []byte) ([]byte, error)

var (
	extractorsMu sync.RWMutex
	extractors   = map[string]ExifExtractor{}
)

// RegisterExifExtractor installs an extractor for an image.Decode format name.
func RegisterExifExtractor(format string, fn ExifExtractor) {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	extractors[format] = fn
}

func extractorFor(format string) ExifExtractor {
	extractorsMu.RLock()
	defer extractorsMu.RUnlock()
	return extractors[format]
}

// ReadOrientation returns the EXIF orientation of data, or TopLeft when the
// file carries none or it cannot be parsed.
func ReadOrientation(data []byte, format string) domain.Orientation {
	raw := data
	if fn := extractorFor(format); fn != nil {
		extracted, err := fn(data)
		if err != nil || len(extracted) == 0 {
			return domain.OrientationTopLeft
		}
		raw = extracted
	} else if format != "jpeg" {
		return domain.OrientationTopLeft
	}

	x, err := exif.Decode(bytes.NewReader(raw))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return domain.OrientationTopLeft
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return domain.OrientationTopLeft
	}

	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return domain.OrientationTopLeft
	}

	return domain.Orientation(v)
}

type Orienter struct{}

func NewOrienter() *Orienter {
	return &Orienter{}
}

// Process rotates img upright according to its orientation tag and resets the
// tag so nothing downstream rotates it again. Mirrored orientations are left
// as they are.
func (o *Orienter) Process(img *Image) {
	switch img.Orientation {
	case domain.OrientationBottomRight:
		img.pixels = imaging.Rotate180(img.pixels)
	case domain.OrientationRightTop:
		// imaging rotates counter-clockwise; 270 CCW is 90 clockwise
		img.pixels = imaging.Rotate270(img.pixels)
	case domain.OrientationLeftBottom:
		img.pixels = imaging.Rotate90(img.pixels)
	}

	img.Orientation = domain.OrientationTopLeft
}
