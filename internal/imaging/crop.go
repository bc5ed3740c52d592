package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultPadding is the fraction of the frame width/height added on every
// side of a region before it is cropped.
const DefaultPadding = 0.02

// CropRect converts a normalized region (x1,y1,x2,y2 in [0,1]) into a pixel
// rectangle for a width x height frame.
//
// The region is grown by padding*width horizontally and padding*height
// vertically, clamped to the frame, and truncated to integer pixels. It never
// fails: when the result would be empty (or the input is not a number) the
// 1x1 rectangle at the origin is returned so that every region still maps to
// exactly one crop.
func CropRect(x1, y1, x2, y2 float64, width, height int, padding float64) image.Rectangle {
	if width <= 0 || height <= 0 {
		return image.Rect(0, 0, 0, 0)
	}

	w := float64(width)
	h := float64(height)
	padX := w * padding
	padY := h * padding

	left := math.Max(x1*w-padX, 0)
	top := math.Max(y1*h-padY, 0)
	right := math.Min(x2*w+padX, w)
	bottom := math.Min(y2*h+padY, h)

	if anyNaN(left, top, right, bottom) {
		return placeholderRect(width, height)
	}

	x := int(left)
	y := int(top)
	cw := int(right - left)
	ch := int(bottom - top)

	if cw <= 0 || ch <= 0 {
		return placeholderRect(width, height)
	}

	return image.Rect(x, y, x+cw, y+ch)
}

// Extract copies the pixels of r out of img.
//
// r is given relative to the image origin and is clamped once more against
// the image extent so that rounding upstream can never read outside the
// source. The returned image is an independent copy, not a view.
func Extract(img image.Image, r image.Rectangle) *image.NRGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	finalX := clamp(r.Min.X, 0, width)
	finalY := clamp(r.Min.Y, 0, height)
	finalW := minInt(r.Dx(), width-finalX)
	finalH := minInt(r.Dy(), height-finalY)

	if finalW <= 0 || finalH <= 0 {
		p := placeholderRect(width, height)
		finalX, finalY, finalW, finalH = 0, 0, p.Dx(), p.Dy()
	}

	rect := image.Rect(finalX, finalY, finalX+finalW, finalY+finalH).Add(bounds.Min)
	return imaging.Crop(img, rect)
}

// ExtractAll crops every rectangle out of img. The output is index-aligned
// with rects.
func ExtractAll(img image.Image, rects []image.Rectangle) []image.Image {
	crops := make([]image.Image, len(rects))
	for i, r := range rects {
		crops[i] = Extract(img, r)
	}
	return crops
}

func placeholderRect(width, height int) image.Rectangle {
	return image.Rect(0, 0, minInt(1, width), minInt(1, height))
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
