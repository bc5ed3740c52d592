// Package capture provides still-image sources for the pipeline.
//
// A Source delivers one Raw capture per call: either a compressed raster
// (JPEG, PNG, ...) or planar YUV 4:2:0 as produced by camera hardware,
// together with the orientation correction the consumer must apply.
package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/text-reader/internal/imaging"
)

// Format identifies the encoding of a Raw capture.
type Format int

const (
	// FormatCompressed is an encoded raster in Data (JPEG, PNG, GIF, BMP,
	// TIFF or WebP).
	FormatCompressed Format = iota

	// FormatYUV420 is planar YUV 4:2:0 in Planes (Y, U, V).
	FormatYUV420
)

func (f Format) String() string {
	switch f {
	case FormatCompressed:
		return "compressed"
	case FormatYUV420:
		return "yuv420"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Raw is a single capture as delivered by a Source.
type Raw struct {
	Format Format

	// Data holds the encoded bytes for FormatCompressed.
	Data []byte

	// Width, Height and Planes describe a FormatYUV420 capture.
	Width  int
	Height int
	Planes [3]imaging.Plane

	// Rotation is the clockwise rotation in degrees needed to display the
	// capture upright. Mirror requests a horizontal flip after rotating.
	Rotation int
	Mirror   bool
}

// Decode converts the capture into an image without applying the
// orientation correction.
func (r Raw) Decode() (image.Image, error) {
	switch r.Format {
	case FormatCompressed:
		img, _, err := imaging.Decode(r.Data)
		return img, err
	case FormatYUV420:
		img, err := imaging.DecodeYUV420(r.Width, r.Height, r.Planes)
		if err != nil {
			return nil, err
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported capture format: %s", r.Format)
	}
}

// Source produces still captures.
type Source interface {
	Capture(ctx context.Context) (Raw, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context) (Raw, error)

// Capture calls f(ctx).
func (f SourceFunc) Capture(ctx context.Context) (Raw, error) {
	return f(ctx)
}
