package pipeline

import (
	readerrors "github.com/ironsheep/text-reader/internal/errors"
)

// Messages shown and spoken for each outcome.
const (
	CaptureAnnouncement = "Capturing image and scanning for text. Please wait."

	NoDetectionsDisplay = "No text or object detected."
	NoDetectionsSpoken  = "No text or object detected in the image. Please reposition the camera and try again."

	UnreadableDisplay = "Text blocks detected, but no characters recognized."
	UnreadableSpoken  = "Text blocks detected, but no readable text found."

	CaptureFailedSpoken      = "Scan failed. Camera error."
	DecodeFailedSpoken       = "Scan failed. Image format error."
	RecognitionTimeoutSpoken = "Scan failed. Text recognition timed out."
	RecognitionFailedSpoken  = "Scan failed. Text recognition error."
)

// MessageFor returns the display text and the spoken text for o.
func MessageFor(o Outcome) (display, spoken string) {
	switch o.Kind {
	case NoDetections:
		return NoDetectionsDisplay, NoDetectionsSpoken
	case Success:
		if !o.Readable() {
			return UnreadableDisplay, UnreadableSpoken
		}
		return o.Text, o.Text
	}

	reason := "unknown error"
	var code readerrors.ErrorCode
	if o.Err != nil {
		reason = o.Err.Reason()
		code = o.Err.Code
	}
	display = "Error: " + reason

	switch code {
	case readerrors.ErrorCaptureFailed:
		spoken = CaptureFailedSpoken
	case readerrors.ErrorDecodeFailed:
		spoken = DecodeFailedSpoken
	case readerrors.ErrorRecognitionTimeout:
		spoken = RecognitionTimeoutSpoken
	default:
		spoken = RecognitionFailedSpoken
	}
	return display, spoken
}
