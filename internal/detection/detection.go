package detection

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrNoDetections is returned by a Detector that ran successfully but found
// nothing in the frame. It is distinct from a Result with zero regions.
var ErrNoDetections = errors.New("no regions detected")

// Region is one detected area of interest.
//
// Coordinates are normalized to the frame: 0 is the left/top edge and 1 the
// right/bottom edge. Detectors may report values slightly outside [0,1]; the
// crop geometry clamps them.
type Region struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
}

// Result is the output of a single detection pass.
type Result struct {
	Regions       []Region      `json:"regions"`
	InferenceTime time.Duration `json:"inference_time"`
}

// Detector finds regions of interest in a frame.
//
// Implementations return ErrNoDetections when the frame holds nothing of
// interest; any other error is a detection failure.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*Result, error)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) (*Result, error)

// Detect calls f(ctx, img).
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) (*Result, error) {
	return f(ctx, img)
}
