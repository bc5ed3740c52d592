//go:build !cgo || !linux

package ocr

import (
	"context"
	"image"
)

// TesseractEnabled reports whether NewTesseract can succeed in this build.
const TesseractEnabled = false

// Tesseract is a stub recognizer that fails every operation.
type Tesseract struct{}

// NewTesseract returns ErrOCRNotEnabled.
// To enable Tesseract, build on Linux with CGO_ENABLED=1.
func NewTesseract(language, tessdataPrefix string) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	return "", ErrOCRNotEnabled
}

// Version returns an empty string.
func (t *Tesseract) Version() string {
	return ""
}
