package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ExecEngine speaks by running a command line synthesizer such as espeak-ng
// or macOS say. The text is written to the process's stdin; the voice is
// passed as "-v <voice>".
//
// Only one process runs at a time. Stop kills it.
type ExecEngine struct {
	Command string
	Voice   string

	// ProbeVoices enables the "--voices=<voice>" language check in Init.
	// It is set for espeak style commands.
	ProbeVoices bool

	log logrus.FieldLogger

	mu      sync.Mutex
	current *utterance
	gen     uint64
}

type utterance struct {
	cmd  *exec.Cmd
	tag  string
	done chan struct{}
}

// NewExecEngine creates an ExecEngine for command with voice.
func NewExecEngine(command, voice string, log logrus.FieldLogger) *ExecEngine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	base := filepath.Base(command)
	return &ExecEngine{
		Command:     command,
		Voice:       voice,
		ProbeVoices: strings.HasPrefix(base, "espeak"),
		log:         log.WithField("engine", base),
	}
}

// Init checks that the command exists and, when ProbeVoices is set, that the
// voice is installed. A missing voice yields ErrLanguageUnsupported.
func (e *ExecEngine) Init(ctx context.Context) error {
	path, err := exec.LookPath(e.Command)
	if err != nil {
		return fmt.Errorf("speech command %q not found: %w", e.Command, err)
	}

	if !e.ProbeVoices || e.Voice == "" {
		return nil
	}

	out, err := exec.CommandContext(ctx, path, "--voices="+e.Voice).Output()
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	// The listing starts with a header line; any further line is a match.
	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			lines++
		}
	}
	if lines < 2 {
		return fmt.Errorf("%w: voice %q", ErrLanguageUnsupported, e.Voice)
	}

	return nil
}

// Speak starts speaking text. With QueueFlush the current utterance is killed
// first; with QueueAdd the new one starts when the current one ends.
func (e *ExecEngine) Speak(text string, mode QueueMode, tag string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mode == QueueFlush {
		e.stopLocked()
		return e.startLocked(text, tag)
	}

	prev := e.current
	if prev == nil {
		return e.startLocked(text, tag)
	}

	gen := e.gen
	go func() {
		wait := prev.done
		for {
			<-wait
			e.mu.Lock()
			// a Stop or flush since queuing cancels this utterance
			if e.gen != gen {
				e.mu.Unlock()
				return
			}
			if e.current != nil && !e.current.finished() {
				wait = e.current.done
				e.mu.Unlock()
				continue
			}
			if err := e.startLocked(text, tag); err != nil {
				e.log.WithError(err).WithField("tag", tag).Error("Queued utterance failed to start")
			}
			e.mu.Unlock()
			return
		}
	}()
	return nil
}

func (u *utterance) finished() bool {
	select {
	case <-u.done:
		return true
	default:
		return false
	}
}

// Stop kills the running utterance and drops queued ones.
func (e *ExecEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

// IsSpeaking reports whether a synthesizer process is running.
func (e *ExecEngine) IsSpeaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.current != nil && !e.current.finished()
}

// Shutdown stops speech. The engine holds no other resources.
func (e *ExecEngine) Shutdown() error {
	return e.Stop()
}

// startLocked starts a process for text. Caller holds e.mu.
func (e *ExecEngine) startLocked(text, tag string) error {
	var args []string
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}

	cmd := exec.Command(e.Command, args...)
	cmd.Stdin = strings.NewReader(text)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.Command, err)
	}

	u := &utterance{cmd: cmd, tag: tag, done: make(chan struct{})}
	e.current = u

	go func() {
		err := cmd.Wait()
		close(u.done)
		if err != nil && cmd.ProcessState != nil && !cmd.ProcessState.Exited() {
			// killed by Stop
			return
		}
		if err != nil {
			e.log.WithError(err).WithField("tag", tag).Warn("Synthesizer exited with error")
			return
		}
		e.log.WithField("tag", tag).Debug("Utterance finished")
	}()

	return nil
}

// stopLocked kills the current process and waits for it. Caller holds e.mu.
func (e *ExecEngine) stopLocked() {
	e.gen++
	u := e.current
	if u == nil {
		return
	}
	e.current = nil

	if u.finished() {
		return
	}
	if u.cmd.Process != nil {
		u.cmd.Process.Kill()
	}
	<-u.done
}
