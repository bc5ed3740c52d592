package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Orient applies the capture orientation correction: a clockwise rotation by
// degrees followed by an optional horizontal mirror (front facing cameras).
//
// Right angles are rotated losslessly; any other angle is rotated with a black
// background filling the uncovered corners. The source image is never
// modified; when no correction is needed it is returned unchanged.
func Orient(img image.Image, degrees int, mirror bool) image.Image {
	out := img

	switch d := ((degrees % 360) + 360) % 360; d {
	case 0:
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	default:
		// imaging.Rotate is counter-clockwise
		out = imaging.Rotate(out, -float64(d), color.Black)
	}

	if mirror {
		out = imaging.FlipH(out)
	}

	return out
}
