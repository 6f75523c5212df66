package renderer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LogoExtensions are the file types DecodeLogo understands.
var LogoExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// DecodeLogo reads a logo image in any supported format.
func DecodeLogo(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("logo %s image is empty", format)
	}
	return img, nil
}
