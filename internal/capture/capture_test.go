package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// i420 builds a packed I420 frame with Y=y*width+x, U=100, V=200.
func i420(width, height int) []byte {
	cSize := ((width + 1) / 2) * ((height + 1) / 2)
	data := make([]byte, width*height+2*cSize)
	for i := 0; i < width*height; i++ {
		data[i] = byte(i)
	}
	for i := 0; i < cSize; i++ {
		data[width*height+i] = 100
		data[width*height+cSize+i] = 200
	}
	return data
}

func TestFileSource_Compressed(t *testing.T) {
	path := writePNG(t, t.TempDir(), "board.png", 30, 20)
	src := NewFileSource(path, 90, true)

	raw, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if raw.Format != FormatCompressed {
		t.Errorf("Format: got %v, want compressed", raw.Format)
	}
	if raw.Rotation != 90 || !raw.Mirror {
		t.Errorf("orientation: got rotation=%d mirror=%v", raw.Rotation, raw.Mirror)
	}

	img, err := raw.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds: got %v", img.Bounds())
	}
}

func TestFileSource_RereadsEveryCapture(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "shot.png", 10, 10)
	src := NewFileSource(path, 0, false)

	first, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	writePNG(t, dir, "shot.png", 40, 12)
	second, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	a, _ := first.Decode()
	b, _ := second.Decode()
	if a.Bounds() == b.Bounds() {
		t.Error("expected the second capture to see the replaced file")
	}
}

func TestFileSource_YUV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame_6x4.yuv")
	if err := os.WriteFile(path, i420(6, 4), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := NewFileSource(path, 0, false).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if raw.Format != FormatYUV420 || raw.Width != 6 || raw.Height != 4 {
		t.Fatalf("got format=%v size=%dx%d", raw.Format, raw.Width, raw.Height)
	}

	img, err := raw.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ycc, ok := img.(*image.YCbCr)
	if !ok {
		t.Fatalf("expected *image.YCbCr, got %T", img)
	}
	if ycc.Y[ycc.YOffset(5, 3)] != 23 {
		t.Errorf("Y(5,3): got %d, want 23", ycc.Y[ycc.YOffset(5, 3)])
	}
	if ycc.Cb[ycc.COffset(5, 3)] != 100 || ycc.Cr[ycc.COffset(5, 3)] != 200 {
		t.Errorf("chroma swapped: Cb=%d Cr=%d", ycc.Cb[ycc.COffset(5, 3)], ycc.Cr[ycc.COffset(5, 3)])
	}
}

func TestFileSource_Errors(t *testing.T) {
	dir := t.TempDir()

	noSize := filepath.Join(dir, "frame.yuv")
	os.WriteFile(noSize, i420(4, 4), 0644)

	short := filepath.Join(dir, "frame_64x64.yuv")
	os.WriteFile(short, i420(4, 4), 0644)

	tests := []struct {
		name    string
		path    string
		errText string
	}{
		{"missing file", filepath.Join(dir, "nope.jpg"), "failed to read capture"},
		{"yuv without size", noSize, "cannot infer frame size"},
		{"yuv too short", short, "too short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSource(tt.path, 0, false).Capture(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestFileSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource("/does/not/matter.png", 0, false).Capture(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRaw_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
	}{
		{"garbage bytes", Raw{Format: FormatCompressed, Data: []byte("nope")}},
		{"empty bytes", Raw{Format: FormatCompressed}},
		{"yuv without planes", Raw{Format: FormatYUV420, Width: 4, Height: 4}},
		{"unknown format", Raw{Format: Format(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := tt.raw.Decode()
			if err == nil {
				t.Error("expected error")
			}
			if img != nil {
				t.Errorf("expected nil image, got %T", img)
			}
		})
	}
}

func TestFormat_String(t *testing.T) {
	if FormatCompressed.String() != "compressed" || FormatYUV420.String() != "yuv420" {
		t.Error("unexpected format names")
	}
	if Format(7).String() != "format(7)" {
		t.Errorf("got %q", Format(7).String())
	}
}
