//go:build cgo

package codec

import (
	"bytes"

	"upload-converter/internal/usecase/converter/operations"

	"github.com/jdeng/goheif"
)

// goheif registers the "heic" decoder with the image package on import; the
// orientation lives in its EXIF item, which goexif cannot locate by itself.
func init() {
	operations.RegisterExifExtractor("heic", func(data []byte) ([]byte, error) {
		return goheif.ExtractExif(bytes.NewReader(data))
	})
}
