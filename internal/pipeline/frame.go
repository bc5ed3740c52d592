package pipeline

import (
	"image"

	"github.com/ironsheep/text-reader/internal/capture"
	"github.com/ironsheep/text-reader/internal/imaging"
)

// Frame is the decoded, upright capture of one run. It is read-only once
// built.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
}

// NewFrame decodes raw and applies its orientation correction.
func NewFrame(raw capture.Raw) (Frame, error) {
	img, err := raw.Decode()
	if err != nil {
		return Frame{}, err
	}

	img = imaging.Orient(img, raw.Rotation, raw.Mirror)
	b := img.Bounds()
	return Frame{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}
