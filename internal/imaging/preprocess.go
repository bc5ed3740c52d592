package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// DefaultContrast is the contrast boost applied by Preprocess.
const DefaultContrast = 0.3

// Preprocess prepares a crop for text recognition: the crop is converted to
// grayscale and its contrast is raised by contrast (-1..1, 0 = unchanged).
func Preprocess(img image.Image, contrast float64) image.Image {
	gray := effect.Grayscale(img)
	if contrast == 0 {
		return gray
	}
	return adjust.Contrast(gray, contrast)
}
