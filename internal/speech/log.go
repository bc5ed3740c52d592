package speech

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogEngine "speaks" by writing each utterance to the log. It is used on
// hosts without a synthesizer and when running headless.
type LogEngine struct {
	log logrus.FieldLogger

	mu     sync.Mutex
	spoken int
}

// NewLogEngine creates a LogEngine writing to log.
func NewLogEngine(log logrus.FieldLogger) *LogEngine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogEngine{log: log.WithField("engine", "log")}
}

func (e *LogEngine) Init(ctx context.Context) error { return nil }

func (e *LogEngine) Speak(text string, mode QueueMode, tag string) error {
	e.mu.Lock()
	e.spoken++
	e.mu.Unlock()

	e.log.WithField("tag", tag).Info(text)
	return nil
}

func (e *LogEngine) Stop() error { return nil }

// IsSpeaking is always false: log output is instantaneous.
func (e *LogEngine) IsSpeaking() bool { return false }

func (e *LogEngine) Shutdown() error { return nil }

// Count returns the number of utterances logged so far.
func (e *LogEngine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spoken
}
