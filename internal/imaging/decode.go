package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is returned when a buffer decodes to an image without pixels.
var ErrEmptyImage = errors.New("decoded image has no pixels")

// Decode decodes a compressed raster (JPEG, PNG, GIF, BMP, TIFF or WebP)
// from memory.
//
// Returns the image and the format name reported by the registered decoder.
//
// # Errors
//
//   - Returns error if data is empty
//   - Returns error if no registered decoder recognizes the data
//   - Returns ErrEmptyImage if the decoded image has zero width or height
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("failed to decode image: empty buffer")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}

	return img, format, nil
}
