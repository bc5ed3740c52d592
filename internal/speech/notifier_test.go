package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeEngine records every call in order.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	speaking bool
	initErr  error
	speakErr error
	stopErr  error
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) Init(ctx context.Context) error {
	f.record("init")
	return f.initErr
}

func (f *fakeEngine) Speak(text string, mode QueueMode, tag string) error {
	f.record(fmt.Sprintf("speak(%d):%s", mode, text))
	f.mu.Lock()
	f.speaking = f.speakErr == nil
	f.mu.Unlock()
	return f.speakErr
}

func (f *fakeEngine) Stop() error {
	f.record("stop")
	f.mu.Lock()
	f.speaking = false
	f.mu.Unlock()
	return f.stopErr
}

func (f *fakeEngine) IsSpeaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *fakeEngine) Shutdown() error {
	f.record("shutdown")
	return nil
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func equalCalls(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNotifier_StopThenSpeak(t *testing.T) {
	engine := &fakeEngine{}
	logger, _ := test.NewNullLogger()
	n := NewNotifier(engine, logger)

	n.Notify("first", "a")
	n.Notify("second", "b")

	want := []string{"speak(0):first", "stop", "speak(0):second"}
	if got := engine.Calls(); !equalCalls(got, want) {
		t.Errorf("calls: got %v, want %v", got, want)
	}
}

func TestNotifier_IdleEngineNotStopped(t *testing.T) {
	engine := &fakeEngine{}
	logger, _ := test.NewNullLogger()

	NewNotifier(engine, logger).Notify("hello", "t")

	want := []string{"speak(0):hello"}
	if got := engine.Calls(); !equalCalls(got, want) {
		t.Errorf("calls: got %v, want %v", got, want)
	}
}

func TestNotifier_SpeakFailureIsLogged(t *testing.T) {
	engine := &fakeEngine{speakErr: errors.New("audio device busy")}
	logger, hook := test.NewNullLogger()

	NewNotifier(engine, logger).Notify("hello", "run-1")

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log entry, got %+v", entry)
	}
	if entry.Data["error_code"] != "SPEECH_FAILED" {
		t.Errorf("error_code: got %v", entry.Data["error_code"])
	}
	if entry.Data["run_id"] != "run-1" {
		t.Errorf("run_id: got %v", entry.Data["run_id"])
	}
	if entry.Data["cause"] != "audio device busy" {
		t.Errorf("cause: got %v", entry.Data["cause"])
	}
}

func TestNotifier_Init(t *testing.T) {
	tests := []struct {
		name      string
		initErr   error
		wantCalls []string
	}{
		{"ready", nil, []string{"init", "speak(0):" + ReadyMessage}},
		{"language error", fmt.Errorf("%w: voice xx", ErrLanguageUnsupported), []string{"init", "speak(0):" + LanguageErrorMessage}},
		{"other error", errors.New("no audio"), []string{"init"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{initErr: tt.initErr}
			logger, _ := test.NewNullLogger()

			err := NewNotifier(engine, logger).Init(context.Background())
			if !errors.Is(err, tt.initErr) {
				t.Errorf("Init error: got %v, want %v", err, tt.initErr)
			}
			if got := engine.Calls(); !equalCalls(got, tt.wantCalls) {
				t.Errorf("calls: got %v, want %v", got, tt.wantCalls)
			}
		})
	}
}

func TestNotifier_Shutdown(t *testing.T) {
	engine := &fakeEngine{}
	logger, _ := test.NewNullLogger()

	NewNotifier(engine, logger).Shutdown()

	want := []string{"stop", "shutdown"}
	if got := engine.Calls(); !equalCalls(got, want) {
		t.Errorf("calls: got %v, want %v", got, want)
	}
}

func TestNotifier_ConcurrentNotifyIsSerialized(t *testing.T) {
	engine := &fakeEngine{}
	logger, _ := test.NewNullLogger()
	n := NewNotifier(engine, logger)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n.Notify(fmt.Sprintf("msg %d", i), "t")
		}(i)
	}
	wg.Wait()

	// Every speak after the first must be directly preceded by a stop.
	calls := engine.Calls()
	speaks := 0
	for i, c := range calls {
		if c == "stop" {
			continue
		}
		speaks++
		if speaks > 1 && (i == 0 || calls[i-1] != "stop") {
			t.Fatalf("speak at %d not preceded by stop: %v", i, calls)
		}
	}
	if speaks != 20 {
		t.Errorf("expected 20 speak calls, got %d", speaks)
	}
}

func TestLogEngine(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := NewLogEngine(logger)

	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := e.Speak("STOP.", QueueFlush, "run-9"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if e.Count() != 1 {
		t.Errorf("Count: got %d, want 1", e.Count())
	}
	if e.IsSpeaking() {
		t.Error("LogEngine should never report speaking")
	}
	if entry := hook.LastEntry(); entry == nil || entry.Message != "STOP." || entry.Data["tag"] != "run-9" {
		t.Errorf("unexpected log entry: %+v", entry)
	}
}
