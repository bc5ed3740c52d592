package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/sync/errgroup"

	readerrors "github.com/ironsheep/text-reader/internal/errors"
	"github.com/ironsheep/text-reader/internal/imaging"
	"github.com/ironsheep/text-reader/internal/ocr"
)

// DefaultRecognitionTimeout bounds the wait for all recognitions of a run.
const DefaultRecognitionTimeout = 30 * time.Second

// FanOutOptions configures Recognize.
type FanOutOptions struct {
	// RunID is attached to the returned error.
	RunID string

	// Timeout bounds the whole join. Zero means DefaultRecognitionTimeout.
	Timeout time.Duration

	// Limit caps the requests in flight. Zero means no limit.
	Limit int

	// Preprocess converts each crop to high-contrast grayscale first.
	Preprocess bool
	Contrast   float64
}

// cropError ties a recognition failure to its crop.
type cropError struct {
	index int
	err   error
}

func (e *cropError) Error() string { return fmt.Sprintf("crop %d: %v", e.index, e.err) }
func (e *cropError) Unwrap() error { return e.err }

// Recognize runs rec on every crop concurrently and returns the results in
// crop order.
//
// It is all-or-nothing: the first failure cancels the remaining requests and
// is returned as a RECOGNITION_FAILED error naming the crop. When the join
// does not finish within the timeout a RECOGNITION_TIMEOUT error is returned.
// No crops means an empty result and no error.
func Recognize(ctx context.Context, rec ocr.Recognizer, crops []image.Image, opts FanOutOptions) ([]ocr.Result, error) {
	results := make([]ocr.Result, len(crops))
	if len(crops) == 0 {
		return results, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRecognitionTimeout
	}

	joinCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(joinCtx)
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}

	for i, crop := range crops {
		g.Go(func() error {
			if opts.Preprocess {
				crop = imaging.Preprocess(crop, opts.Contrast)
			}

			text, err := await(gctx, rec, crop)
			if err != nil {
				return &cropError{index: i, err: err}
			}

			results[i] = ocr.Result{Index: i, Text: text}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		return results, nil
	}

	if errors.Is(err, context.DeadlineExceeded) && errors.Is(joinCtx.Err(), context.DeadlineExceeded) {
		return nil, readerrors.NewRecognitionTimeoutError(opts.RunID, timeout, err)
	}

	var ce *cropError
	if errors.As(err, &ce) {
		return nil, readerrors.NewRecognitionError(opts.RunID, ce.index, ce.err)
	}
	return nil, readerrors.NewRecognitionError(opts.RunID, -1, err)
}

type answer struct {
	text string
	err  error
}

// await runs one recognition and waits for its single answer or for ctx,
// whichever comes first. A recognizer that ignores ctx is abandoned; its
// answer lands in the buffered channel and is dropped.
func await(ctx context.Context, rec ocr.Recognizer, img image.Image) (string, error) {
	future := make(chan answer, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				future <- answer{err: fmt.Errorf("recognizer panicked: %v", r)}
			}
		}()
		text, err := rec.Recognize(ctx, img)
		future <- answer{text: text, err: err}
	}()

	select {
	case a := <-future:
		return a.text, a.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
