package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	readerrors "github.com/ironsheep/text-reader/internal/errors"
)

const (
	// ReadyMessage is spoken once the engine is initialized.
	ReadyMessage = "Text reader ready. Tap scan button to begin."

	// LanguageErrorMessage is spoken when the voice language is unavailable.
	LanguageErrorMessage = "Text-to-Speech initialization failed due to language error."

	readyTag = "reader_ready"
)

// Notifier speaks announcements, one at a time.
//
// Notify stops any utterance in progress before speaking the new one. All
// calls are serialized, so concurrent Notify calls never interleave their
// stop and speak steps.
type Notifier struct {
	engine Engine
	log    logrus.FieldLogger

	mu sync.Mutex
}

// NewNotifier creates a Notifier for engine.
func NewNotifier(engine Engine, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{engine: engine, log: log.WithField("component", "speech")}
}

// Init initializes the engine and announces readiness.
//
// On ErrLanguageUnsupported the language error message is spoken (engines
// usually still have a fallback voice); other errors are only logged. The
// error is returned so the caller can report it, but it is never fatal.
func (n *Notifier) Init(ctx context.Context) error {
	err := n.engine.Init(ctx)
	switch {
	case err == nil:
		n.log.Info("Speech engine initialized")
		n.Notify(ReadyMessage, readyTag)
	case errors.Is(err, ErrLanguageUnsupported):
		n.log.WithError(err).Error("Speech language not supported")
		n.Notify(LanguageErrorMessage, readyTag)
	default:
		n.log.WithError(err).Error("Speech engine initialization failed")
	}
	return err
}

// Notify interrupts any utterance in progress and speaks text.
//
// Engine failures are logged as SPEECH_FAILED and swallowed.
func (n *Notifier) Notify(text, tag string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.engine.IsSpeaking() {
		if err := n.engine.Stop(); err != nil {
			n.logFailure(tag, err)
		}
	}

	if err := n.engine.Speak(text, QueueFlush, tag); err != nil {
		n.logFailure(tag, err)
		return
	}

	n.log.WithFields(logrus.Fields{"tag": tag, "text": text}).Debug("Speaking")
}

// Shutdown stops speech and releases the engine.
func (n *Notifier) Shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.engine.Stop(); err != nil {
		n.logFailure("shutdown", err)
	}
	if err := n.engine.Shutdown(); err != nil {
		n.logFailure("shutdown", err)
	}
}

func (n *Notifier) logFailure(tag string, err error) {
	n.log.WithFields(logrus.Fields(readerrors.NewSpeechError(tag, err).ToMap())).Error("Speech failed")
}
