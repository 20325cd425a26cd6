package tesseract

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sniffImage reports whether b decodes as a single raster image.
func sniffImage(b []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return "", false
	}
	return format, true
}
