//go:build cgo && linux

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEnabled reports whether NewTesseract can succeed in this build.
const TesseractEnabled = true

// Tesseract recognizes text with a local Tesseract installation.
//
// gosseract clients are not safe for concurrent use, so every Recognize call
// runs on its own client.
type Tesseract struct {
	language       string
	tessdataPrefix string
}

// NewTesseract creates a Tesseract recognizer for language (e.g. "eng", or
// "eng+fra" for several). tessdataPrefix overrides the directory holding the
// traineddata files; leave it empty to use the system default.
//
// Returns an error if Tesseract cannot be initialized for language.
func NewTesseract(language, tessdataPrefix string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}
	t := &Tesseract{language: language, tessdataPrefix: tessdataPrefix}

	client, err := t.newClient()
	if err != nil {
		return nil, err
	}
	client.Close()

	return t, nil
}

// Recognize implements Recognizer.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client, err := t.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Version returns the linked Tesseract version.
func (t *Tesseract) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

func (t *Tesseract) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(t.language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	return client, nil
}
