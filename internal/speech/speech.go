// Package speech announces pipeline results through a text-to-speech engine.
//
// The Engine interface abstracts the voice backend. Notifier wraps an engine
// with the interruption policy the reader needs: a new announcement always
// cuts off the one currently playing, and engine failures are logged instead
// of being returned to the caller.
package speech

import (
	"context"
	"errors"
)

// QueueMode controls how a new utterance interacts with the one playing.
type QueueMode int

const (
	// QueueFlush drops whatever is playing or queued and speaks immediately.
	QueueFlush QueueMode = iota

	// QueueAdd speaks after the current utterance finishes.
	QueueAdd
)

// ErrLanguageUnsupported is returned by Engine.Init when the configured voice
// or language is missing.
var ErrLanguageUnsupported = errors.New("speech language not supported")

// Engine is a text-to-speech backend.
//
// Speak must not block until the utterance finishes; tag identifies the
// utterance in logs.
type Engine interface {
	Init(ctx context.Context) error
	Speak(text string, mode QueueMode, tag string) error
	Stop() error
	IsSpeaking() bool
	Shutdown() error
}
