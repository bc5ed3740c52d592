package pipeline

import (
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/text-reader/internal/detection"
)

// Report describes a finished run. It is handed to the Listener once the
// outcome has been announced.
type Report struct {
	RunID   string
	Outcome Outcome

	// Regions as returned by the detector, in the order they were
	// recognized. Rects holds the matching crop rectangles in frame pixels.
	Regions []detection.Region
	Rects   []image.Rectangle

	// InferenceTime is the detector's own timing. InferenceLabel renders it
	// as "<ms>ms + OCR" and is empty when detection produced no result.
	InferenceTime  time.Duration
	InferenceLabel string

	DisplayText string
	SpokenText  string

	// Overlay is the frame with the regions drawn on it, when enabled.
	Overlay image.Image

	Started  time.Time
	Duration time.Duration
}

// Listener receives the report of every run. OnOutcome is called on the
// pipeline's main executor and must not block or call TriggerCapture.
type Listener interface {
	OnOutcome(Report)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(Report)

// OnOutcome calls f(r).
func (f ListenerFunc) OnOutcome(r Report) {
	f(r)
}

// Notifier announces outcomes. speech.Notifier implements it.
type Notifier interface {
	Notify(text, tag string)
}

func inferenceLabel(d time.Duration) string {
	return fmt.Sprintf("%dms + OCR", d.Milliseconds())
}
