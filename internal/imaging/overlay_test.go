package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestOverlay_DrawsBorder(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	src := newSolidImage(100, 100, white)
	box := OverlayBox{Rect: image.Rect(50, 50, 90, 90)}

	out := Overlay(src, []OverlayBox{box})

	c := LabelColor("")
	if !sameColor(out.At(50, 70), c) {
		t.Errorf("left border: got %v, want %v", out.At(50, 70), c)
	}
	if !sameColor(out.At(89, 70), c) {
		t.Errorf("right border: got %v, want %v", out.At(89, 70), c)
	}
	if !sameColor(out.At(70, 70), white) {
		t.Errorf("box interior should be untouched, got %v", out.At(70, 70))
	}
	if !sameColor(out.At(10, 10), white) {
		t.Errorf("outside the box should be untouched, got %v", out.At(10, 10))
	}
	if !sameColor(src.At(50, 70), white) {
		t.Error("source image was modified")
	}
}

func TestOverlay_LabelAndClipping(t *testing.T) {
	src := newSolidImage(60, 40, color.RGBA{0, 0, 0, 255})
	boxes := []OverlayBox{
		{Rect: image.Rect(5, 5, 30, 30), Label: "text"},
		{Rect: image.Rect(40, 20, 200, 200), Label: "a long label that overflows"},
		{Rect: image.Rect(500, 500, 600, 600), Label: "outside"},
	}

	out := Overlay(src, boxes)

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), src.Bounds())
	}
	if !sameColor(out.At(59, 30), LabelColor(boxes[1].Label)) {
		t.Errorf("clipped box should still be drawn at the frame edge, got %v", out.At(59, 30))
	}
}

func TestLabelColor(t *testing.T) {
	if LabelColor("text") != LabelColor("text") {
		t.Error("same label should give the same color")
	}
	if LabelColor("text") == LabelColor("person") {
		t.Error("different labels should normally give different colors")
	}
	if LabelColor("text").A != 255 {
		t.Error("label colors should be opaque")
	}
}

func TestEncodePNGBase64(t *testing.T) {
	src := newPatternImage(8, 4)

	encoded, err := EncodePNGBase64(src)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds() != src.Bounds() {
		t.Errorf("bounds: got %v, want %v", img.Bounds(), src.Bounds())
	}
}
