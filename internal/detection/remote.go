package detection

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RemoteDetector sends frames to a detection model served over a websocket.
//
// Each Detect call writes the frame as a single binary JPEG message and reads
// a single JSON text message back:
//
//	{
//	  "detections": [{"bbox": [x1, y1, x2, y2], "confidence": 0.91, "label": "text"}],
//	  "inference_ms": 42.5,
//	  "error": ""
//	}
//
// bbox values are normalized to the frame. An empty detections list maps to
// ErrNoDetections. The connection is opened lazily and re-dialed after any
// transport failure.
type RemoteDetector struct {
	URL          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	JPEGQuality  int

	log  logrus.FieldLogger
	mu   sync.Mutex
	conn *websocket.Conn
}

type remoteDetection struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"confidence"`
	Label      string    `json:"label"`
}

type remoteResponse struct {
	Detections  []remoteDetection `json:"detections"`
	InferenceMS float64           `json:"inference_ms"`
	Error       string            `json:"error,omitempty"`
}

// NewRemoteDetector creates a detector for the websocket endpoint at url.
func NewRemoteDetector(url string, log logrus.FieldLogger) *RemoteDetector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RemoteDetector{
		URL:          url,
		DialTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  10 * time.Second,
		JPEGQuality:  90,
		log:          log.WithField("component", "remote_detector"),
	}
}

// Detect implements Detector.
func (d *RemoteDetector) Detect(ctx context.Context, img image.Image) (*Result, error) {
	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, img, &jpeg.Options{Quality: d.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	// Unblock pending reads and writes when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		conn.SetWriteDeadline(time.Now())
	})
	defer stop()

	conn.SetWriteDeadline(d.deadline(ctx, d.WriteTimeout))
	d.log.WithField("bytes", frame.Len()).Debug("Sending frame")
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Bytes()); err != nil {
		d.drop()
		return nil, d.ctxErr(ctx, fmt.Errorf("error sending frame: %w", err))
	}

	conn.SetReadDeadline(d.deadline(ctx, d.ReadTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		d.drop()
		return nil, d.ctxErr(ctx, fmt.Errorf("error reading detection response: %w", err))
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var resp remoteResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling detection response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detection service error: %s", resp.Error)
	}

	d.log.WithFields(logrus.Fields{
		"detections":   len(resp.Detections),
		"inference_ms": resp.InferenceMS,
	}).Debug("Received detection response")

	if len(resp.Detections) == 0 {
		return nil, ErrNoDetections
	}

	regions := make([]Region, 0, len(resp.Detections))
	for i, det := range resp.Detections {
		if len(det.BBox) != 4 {
			return nil, fmt.Errorf("detection %d: bbox has %d values, want 4", i, len(det.BBox))
		}
		regions = append(regions, Region{
			X1:         det.BBox[0],
			Y1:         det.BBox[1],
			X2:         det.BBox[2],
			Y2:         det.BBox[3],
			Confidence: det.Confidence,
			Label:      det.Label,
		})
	}

	return &Result{
		Regions:       regions,
		InferenceTime: time.Duration(resp.InferenceMS * float64(time.Millisecond)),
	}, nil
}

// Close closes the connection, if any. The detector re-dials on next use.
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(d.WriteTimeout))
	d.drop()
	return err
}

// connect returns the open connection, dialing if needed. Caller holds d.mu.
func (d *RemoteDetector) connect(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}
	if d.URL == "" {
		return nil, fmt.Errorf("detection service URL not configured")
	}

	d.log.WithField("url", d.URL).Info("Connecting to detection service")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = d.DialTimeout

	conn, _, err := dialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.WriteTimeout))
		if err != nil {
			d.log.WithError(err).Warn("Error sending pong")
		}
		return nil
	})

	d.conn = conn
	return conn, nil
}

// drop closes and forgets the connection. Caller holds d.mu.
func (d *RemoteDetector) drop() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *RemoteDetector) deadline(ctx context.Context, timeout time.Duration) time.Time {
	dl := time.Now().Add(timeout)
	if ctxDL, ok := ctx.Deadline(); ok && ctxDL.Before(dl) {
		return ctxDL
	}
	return dl
}

// ctxErr prefers the context's error when ctx ended the exchange.
func (d *RemoteDetector) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	// the socket deadline can fire a moment before ctx marks itself done
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
