package operations

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

// gradient returns an image whose every pixel is distinct enough to detect
// rotations.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

// exifSegment builds a JPEG APP1 segment holding a single Orientation tag.
func exifSegment(orientation uint16) []byte {
	tiff := new(bytes.Buffer)
	tiff.WriteString("MM\x00\x2a")
	binary.Write(tiff, binary.BigEndian, uint32(8))
	binary.Write(tiff, binary.BigEndian, uint16(1))
	binary.Write(tiff, binary.BigEndian, uint16(0x0112))
	binary.Write(tiff, binary.BigEndian, uint16(3))
	binary.Write(tiff, binary.BigEndian, uint32(1))
	binary.Write(tiff, binary.BigEndian, orientation)
	binary.Write(tiff, binary.BigEndian, uint16(0))
	binary.Write(tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	seg := new(bytes.Buffer)
	seg.Write([]byte{0xFF, 0xE1})
	binary.Write(seg, binary.BigEndian, uint16(len(payload)+2))
	seg.Write(payload)
	return seg.Bytes()
}

func jpegWithOrientation(t *testing.T, img image.Image, orientation uint16) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}))
	data := buf.Bytes()

	out := make([]byte, 0, len(data)+64)
	out = append(out, data[:2]...)
	out = append(out, exifSegment(orientation)...)
	out = append(out, data[2:]...)
	return out
}
