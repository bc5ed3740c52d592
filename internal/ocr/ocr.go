package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// ErrOCRNotEnabled is returned when the Tesseract recognizer is requested but
// OCR support was not compiled in. It needs Linux and CGO_ENABLED=1.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; build on Linux with cgo")

// Result is the text recognized in one crop.
type Result struct {
	// Index is the position of the crop in the request list.
	Index int `json:"index"`

	// Text is the recognized text, possibly empty.
	Text string `json:"text"`
}

// Recognizer turns an image into text.
//
// Implementations must be safe for concurrent use: the pipeline issues one
// Recognize call per crop, all at the same time. An image with no readable
// text yields "" and a nil error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) (string, error)

// Recognize calls f(ctx, img).
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}

// encodePNG encodes img for engines that take encoded image bytes.
func encodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("failed to encode image: empty image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
