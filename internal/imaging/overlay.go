package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayBox is one rectangle to draw on top of a frame.
type OverlayBox struct {
	Rect  image.Rectangle
	Label string
}

// overlayStroke is the border thickness in pixels.
const overlayStroke = 3

// Overlay draws the boxes and their labels on a copy of img.
//
// Every distinct label gets its own stable color so that boxes of the same
// class are easy to tell apart from others.
func Overlay(img image.Image, boxes []OverlayBox) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for _, b := range boxes {
		c := LabelColor(b.Label)
		r := b.Rect.Add(bounds.Min).Intersect(bounds)
		if r.Empty() {
			continue
		}
		drawBorder(result, r, c)
		if b.Label != "" {
			drawLabel(result, r.Min.X, r.Min.Y, b.Label, color.RGBA{255, 255, 255, 255}, c)
		}
	}

	return result
}

// LabelColor returns the overlay color used for label.
func LabelColor(label string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	hue := float64(h.Sum32() % 360)

	r, g, b := colorful.Hsv(hue, 0.85, 0.95).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// EncodePNGBase64 encodes img as a base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawBorder(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for i := 0; i < overlayStroke; i++ {
		inner := image.Rect(r.Min.X+i, r.Min.Y+i, r.Max.X-i, r.Max.Y-i)
		if inner.Empty() {
			return
		}
		for x := inner.Min.X; x < inner.Max.X; x++ {
			img.SetRGBA(x, inner.Min.Y, c)
			img.SetRGBA(x, inner.Max.Y-1, c)
		}
		for y := inner.Min.Y; y < inner.Max.Y; y++ {
			img.SetRGBA(inner.Min.X, y, c)
			img.SetRGBA(inner.Max.X-1, y, c)
		}
	}
}

// drawLabel draws text on a filled background with its top-left corner at
// (x, y). Labels that would leave the image are moved inside it.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	bounds := img.Bounds()

	width := font.MeasureString(face, text).Ceil() + 4
	height := face.Height + 2

	if x+width > bounds.Max.X {
		x = bounds.Max.X - width
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	if y-height >= bounds.Min.Y {
		y -= height
	}

	bgRect := image.Rect(x, y, x+width, y+height).Intersect(bounds)
	draw.Draw(img, bgRect, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x + 2), Y: fixed.I(y + face.Ascent + 1)},
	}
	d.DrawString(text)
}
