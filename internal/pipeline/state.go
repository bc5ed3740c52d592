package pipeline

import (
	"fmt"

	readerrors "github.com/ironsheep/text-reader/internal/errors"
)

// State is the phase of the pipeline.
type State int32

const (
	Idle State = iota
	Capturing
	Detecting
	Recognizing
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Detecting:
		return "detecting"
	case Recognizing:
		return "recognizing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// OutcomeKind classifies how a run ended.
type OutcomeKind int

const (
	// NoDetections means the detector found nothing in the frame.
	NoDetections OutcomeKind = iota

	// Success means every region was recognized. The text may be empty.
	Success

	// RecognitionFailure means a phase failed; Outcome.Err has the cause.
	RecognitionFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case NoDetections:
		return "no_detections"
	case Success:
		return "success"
	case RecognitionFailure:
		return "failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the terminal result of one run.
type Outcome struct {
	Kind OutcomeKind

	// Text is the merged text of a Success.
	Text string

	// Err is set for RecognitionFailure only.
	Err *readerrors.PipelineError
}

// Readable reports whether the outcome carries text to read out. A Success
// with empty text (regions found, nothing legible) is not readable.
func (o Outcome) Readable() bool {
	return o.Kind == Success && o.Text != ""
}

func successOutcome(text string) Outcome {
	return Outcome{Kind: Success, Text: text}
}

func failureOutcome(err *readerrors.PipelineError) Outcome {
	return Outcome{Kind: RecognitionFailure, Err: err}
}
