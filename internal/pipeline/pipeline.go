package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/text-reader/internal/capture"
	"github.com/ironsheep/text-reader/internal/detection"
	readerrors "github.com/ironsheep/text-reader/internal/errors"
	"github.com/ironsheep/text-reader/internal/imaging"
	"github.com/ironsheep/text-reader/internal/ocr"
)

// Options tunes a Pipeline.
type Options struct {
	// Padding is the fraction of the frame added around every region.
	Padding float64

	// RecognitionTimeout bounds the recognition join of a run.
	RecognitionTimeout time.Duration

	// MaxConcurrentRecognitions caps recognitions in flight; 0 = no cap.
	MaxConcurrentRecognitions int

	// Preprocess converts crops to high-contrast grayscale before OCR.
	Preprocess bool
	Contrast   float64

	// AnnounceCapture speaks CaptureAnnouncement when a run starts.
	AnnounceCapture bool

	// RenderOverlay draws the regions onto the frame for the Report.
	RenderOverlay bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Padding:            imaging.DefaultPadding,
		RecognitionTimeout: DefaultRecognitionTimeout,
		Contrast:           imaging.DefaultContrast,
	}
}

// Dependencies are the collaborators of a Pipeline. Source, Detector and
// Recognizer are required.
type Dependencies struct {
	Source     capture.Source
	Detector   detection.Detector
	Recognizer ocr.Recognizer
	Notifier   Notifier
	Listener   Listener
	Logger     logrus.FieldLogger
}

// Pipeline runs one capture-to-speech flow at a time.
type Pipeline struct {
	opts Options
	deps Dependencies
	log  logrus.FieldLogger

	main     *executor
	capture  *executor
	analysis *executor

	state  atomic.Int32
	active atomic.Bool

	mu   sync.Mutex
	last *Report
}

// run is the bookkeeping of one scan. Only the main executor writes to it.
type run struct {
	id      string
	started time.Time
	log     logrus.FieldLogger

	frame     Frame
	regions   []detection.Region
	rects     []image.Rectangle
	inference time.Duration
	detected  bool
}

// New creates a Pipeline. It does nothing until Run is called.
func New(opts Options, deps Dependencies) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if opts.RecognitionTimeout <= 0 {
		opts.RecognitionTimeout = DefaultRecognitionTimeout
	}

	return &Pipeline{
		opts:     opts,
		deps:     deps,
		log:      deps.Logger.WithField("component", "pipeline"),
		main:     newExecutor("main"),
		capture:  newExecutor("capture"),
		analysis: newExecutor("analysis"),
	}
}

// Run hosts the executors until ctx is cancelled. The calling goroutine
// becomes the main executor.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.active.CompareAndSwap(false, true) {
		return errors.New("pipeline is already running")
	}
	defer p.active.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// all executors accept work before Running reports true
	workers := []*executor{p.capture, p.analysis}
	for _, ex := range workers {
		ex.start(ctx)
	}
	p.main.start(ctx)

	var wg sync.WaitGroup
	for _, ex := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex.loop(ctx)
		}()
	}

	p.log.Info("Pipeline started")
	p.main.loop(ctx)

	cancel()
	wg.Wait()
	p.state.Store(int32(Idle))
	p.log.Info("Pipeline stopped")

	return nil
}

// Running reports whether Run is accepting triggers.
func (p *Pipeline) Running() bool {
	return p.main.running()
}

// State returns the current state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// LastReport returns the report of the most recent finished run.
func (p *Pipeline) LastReport() (Report, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return Report{}, false
	}
	return *p.last, true
}

// TriggerCapture starts a run. It returns false, with no side effect, when a
// run is already in progress or the pipeline is not running.
func (p *Pipeline) TriggerCapture() bool {
	_, accepted := p.Trigger()
	return accepted
}

// Trigger is TriggerCapture that also returns the ID of the started run, the
// RunID its Report will carry.
func (p *Pipeline) Trigger() (string, bool) {
	var (
		runID    string
		accepted bool
	)
	if !p.main.call(func(ctx context.Context) { runID, accepted = p.begin() }) {
		return "", false
	}
	return runID, accepted
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// begin runs on the main executor.
func (p *Pipeline) begin() (string, bool) {
	if current := p.State(); current != Idle {
		p.log.WithField("state", current).Debug("Scan in progress, trigger ignored")
		return "", false
	}

	r := &run{id: uuid.NewString(), started: time.Now()}
	r.log = p.log.WithField("run_id", r.id)

	p.setState(Capturing)
	r.log.Info("Scan started")

	if p.opts.AnnounceCapture {
		p.notify(CaptureAnnouncement, r.id)
	}

	onPanic := func(err error) *readerrors.PipelineError { return readerrors.NewCaptureError(r.id, err) }
	if !p.work(p.capture, r, onPanic, func(ctx context.Context) { p.capturePhase(ctx, r) }) {
		p.setState(Idle)
		return "", false
	}
	return r.id, true
}

// work posts fn to a worker executor. A panic in fn ends the run with the
// error built by onPanic.
func (p *Pipeline) work(ex *executor, r *run, onPanic func(error) *readerrors.PipelineError, fn task) bool {
	return ex.post(func(ctx context.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic in %s executor: %v", ex.name, rec)
				r.log.WithError(err).WithField("stack", string(debug.Stack())).Error("Phase panicked")
				p.main.post(func(context.Context) { p.finish(r, failureOutcome(onPanic(err))) })
			}
		}()
		fn(ctx)
	})
}

// capturePhase runs on the capture executor.
func (p *Pipeline) capturePhase(ctx context.Context, r *run) {
	start := time.Now()

	raw, err := p.deps.Source.Capture(ctx)
	if err != nil {
		p.main.post(func(context.Context) {
			p.finish(r, failureOutcome(readerrors.NewCaptureError(r.id, err)))
		})
		return
	}

	frame, err := NewFrame(raw)
	if err != nil {
		p.main.post(func(context.Context) {
			p.finish(r, failureOutcome(readerrors.NewDecodeError(r.id, raw.Format.String(), err)))
		})
		return
	}

	r.log.WithFields(logrus.Fields{
		"format":   raw.Format.String(),
		"width":    frame.Width,
		"height":   frame.Height,
		"duration": time.Since(start),
	}).Debug("Capture complete")

	p.main.post(func(context.Context) { p.captured(r, frame) })
}

// captured runs on the main executor.
func (p *Pipeline) captured(r *run, frame Frame) {
	r.frame = frame
	p.setState(Detecting)

	onPanic := func(err error) *readerrors.PipelineError { return readerrors.NewDetectionError(r.id, err) }
	p.work(p.analysis, r, onPanic, func(ctx context.Context) { p.detectPhase(ctx, r, frame) })
}

// detectPhase runs on the analysis executor.
func (p *Pipeline) detectPhase(ctx context.Context, r *run, frame Frame) {
	start := time.Now()
	res, err := p.deps.Detector.Detect(ctx, frame.Image)

	fields := logrus.Fields{"duration": time.Since(start)}
	if res != nil {
		fields["regions"] = len(res.Regions)
	}
	r.log.WithFields(fields).Debug("Detection complete")

	p.main.post(func(context.Context) { p.detected(r, res, err) })
}

// detected runs on the main executor.
func (p *Pipeline) detected(r *run, res *detection.Result, err error) {
	switch {
	case errors.Is(err, detection.ErrNoDetections):
		p.finish(r, Outcome{Kind: NoDetections})
		return
	case err != nil:
		p.finish(r, failureOutcome(readerrors.NewDetectionError(r.id, err)))
		return
	}

	if res == nil {
		res = &detection.Result{}
	}

	r.detected = true
	r.regions = res.Regions
	r.inference = res.InferenceTime
	r.rects = make([]image.Rectangle, len(res.Regions))
	for i, reg := range res.Regions {
		r.rects[i] = imaging.CropRect(reg.X1, reg.Y1, reg.X2, reg.Y2, r.frame.Width, r.frame.Height, p.opts.Padding)
	}

	p.setState(Recognizing)

	frame, rects := r.frame, r.rects
	onPanic := func(err error) *readerrors.PipelineError { return readerrors.NewRecognitionError(r.id, -1, err) }
	p.work(p.analysis, r, onPanic, func(ctx context.Context) { p.recognizePhase(ctx, r, frame, rects) })
}

// recognizePhase runs on the analysis executor.
func (p *Pipeline) recognizePhase(ctx context.Context, r *run, frame Frame, rects []image.Rectangle) {
	start := time.Now()

	crops := imaging.ExtractAll(frame.Image, rects)
	results, err := Recognize(ctx, p.deps.Recognizer, crops, FanOutOptions{
		RunID:      r.id,
		Timeout:    p.opts.RecognitionTimeout,
		Limit:      p.opts.MaxConcurrentRecognitions,
		Preprocess: p.opts.Preprocess,
		Contrast:   p.opts.Contrast,
	})

	r.log.WithFields(logrus.Fields{
		"crops":    len(crops),
		"duration": time.Since(start),
	}).Debug("Recognition complete")

	p.main.post(func(context.Context) {
		if err != nil {
			var pe *readerrors.PipelineError
			if !errors.As(err, &pe) {
				pe = readerrors.NewRecognitionError(r.id, -1, err)
			}
			p.finish(r, failureOutcome(pe))
			return
		}
		p.finish(r, successOutcome(Merge(results)))
	})
}

// finish runs on the main executor and ends r: announce, report, reset.
func (p *Pipeline) finish(r *run, outcome Outcome) {
	p.setState(Done)

	display, spoken := MessageFor(outcome)
	report := Report{
		RunID:         r.id,
		Outcome:       outcome,
		Regions:       r.regions,
		Rects:         r.rects,
		InferenceTime: r.inference,
		DisplayText:   display,
		SpokenText:    spoken,
		Started:       r.started,
		Duration:      time.Since(r.started),
	}
	if r.detected {
		report.InferenceLabel = inferenceLabel(r.inference)
	}
	if p.opts.RenderOverlay && r.frame.Image != nil {
		report.Overlay = p.overlay(r)
	}

	entry := r.log.WithFields(logrus.Fields{
		"outcome":  outcome.Kind.String(),
		"regions":  len(r.regions),
		"duration": report.Duration,
	})
	if outcome.Err != nil {
		entry.WithFields(logrus.Fields(outcome.Err.ToMap())).Warn("Scan failed")
	} else {
		entry.Info("Scan finished")
	}

	p.notify(spoken, r.id)

	p.mu.Lock()
	p.last = &report
	p.mu.Unlock()

	p.report(report)
	p.setState(Idle)
}

func (p *Pipeline) notify(text, tag string) {
	if p.deps.Notifier != nil {
		p.deps.Notifier.Notify(text, tag)
	}
}

func (p *Pipeline) report(report Report) {
	if p.deps.Listener == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.log.WithField("run_id", report.RunID).Errorf("Listener panicked: %v", rec)
		}
	}()
	p.deps.Listener.OnOutcome(report)
}

func (p *Pipeline) overlay(r *run) image.Image {
	boxes := make([]imaging.OverlayBox, len(r.rects))
	for i, rect := range r.rects {
		label := r.regions[i].Label
		if label == "" {
			label = detection.TextLabel
		}
		boxes[i] = imaging.OverlayBox{Rect: rect, Label: label}
	}
	return imaging.Overlay(r.frame.Image, boxes)
}
