// Package errors defines the coded error taxonomy used by the text reader
// pipeline. Every terminal failure of a run carries one of these codes so the
// caller can pick the right spoken message.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode identifies the class of a pipeline failure.
type ErrorCode string

const (
	// Capture errors (hardware or encoding before detection starts)
	ErrorCaptureFailed ErrorCode = "CAPTURE_FAILED"
	ErrorDecodeFailed  ErrorCode = "DECODE_FAILED"

	// Analysis errors
	ErrorDetectionFailed    ErrorCode = "DETECTION_FAILED"
	ErrorRecognitionFailed  ErrorCode = "RECOGNITION_FAILED"
	ErrorRecognitionTimeout ErrorCode = "RECOGNITION_TIMEOUT"

	// Output errors, never fatal to a run
	ErrorSpeechFailed ErrorCode = "SPEECH_FAILED"
)

// PipelineError represents a structured pipeline failure.
type PipelineError struct {
	Code      ErrorCode
	Message   string
	RunID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Reason returns the most specific human readable explanation: the cause
// message when there is one, the error message otherwise.
func (e *PipelineError) Reason() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// Factory functions

func NewCaptureError(runID string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorCaptureFailed,
		Message:   "Photo capture failed",
		RunID:     runID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewDecodeError(runID string, format string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorDecodeFailed,
		Message:   fmt.Sprintf("Failed to decode captured frame (%s)", format),
		RunID:     runID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"format": format,
		},
		Cause: cause,
	}
}

func NewDetectionError(runID string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorDetectionFailed,
		Message:   "Region detection failed",
		RunID:     runID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewRecognitionError(runID string, region int, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorRecognitionFailed,
		Message:   fmt.Sprintf("Text recognition failed for region %d", region),
		RunID:     runID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"region": region,
		},
		Cause: cause,
	}
}

func NewRecognitionTimeoutError(runID string, duration time.Duration, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorRecognitionTimeout,
		Message:   fmt.Sprintf("Text recognition timed out after %v", duration),
		RunID:     runID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewSpeechError(tag string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorSpeechFailed,
		Message:   "Speech synthesis failed",
		RunID:     tag,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// CodeOf returns the code of the first PipelineError in err's chain, or ""
// when there is none. A typed-nil *PipelineError has no code.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if stderrors.As(err, &pe) && pe != nil {
		return pe.Code
	}
	return ""
}

// ToMap converts error to map for structured logging
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.RunID != "" {
		result["run_id"] = e.RunID
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
