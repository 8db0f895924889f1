package domain

// ConversionConfig is supplied on every conversion; the converter never mutates it.
type ConversionConfig struct {
	Enabled   bool `json:"enabled"`
	MaxWidth  uint `json:"max_width" validate:"min=1,max=9999"`
	MaxHeight uint `json:"max_height" validate:"min=1,max=9999"`
	Quality   uint `json:"quality" validate:"min=1,max=100"`
}

// ClampedQuality returns the quality forced into [1, 100].
func (c ConversionConfig) ClampedQuality() int {
	switch {
	case c.Quality < 1:
		return 1
	case c.Quality > 100:
		return 100
	default:
		return int(c.Quality)
	}
}

type ConversionStatus string

const (
	ConversionDisabled          ConversionStatus = "disabled"
	ConversionUnsupported       ConversionStatus = "unsupported"
	ConversionCapabilityMissing ConversionStatus = "capability_missing"
	ConversionFailed            ConversionStatus = "failed"
	ConversionKeptOriginal      ConversionStatus = "kept_original"
	ConversionConverted         ConversionStatus = "converted"
)

// Orientation is the EXIF orientation tag (1-8).
type Orientation int

const (
	OrientationTopLeft     Orientation = 1
	OrientationTopRight    Orientation = 2
	OrientationBottomRight Orientation = 3
	OrientationBottomLeft  Orientation = 4
	OrientationLeftTop     Orientation = 5
	OrientationRightTop    Orientation = 6
	OrientationRightBottom Orientation = 7
	OrientationLeftBottom  Orientation = 8
)

// AcceptedMimeTypes are the declared types the converter will touch.
var AcceptedMimeTypes = map[string]bool{
	MimeJPEG: true,
	MimePNG:  true,
	MimeGIF:  true,
	MimeHEIC: true,
}

func IsAccepted(mimeType string) bool {
	return AcceptedMimeTypes[mimeType]
}
