package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/text-reader/internal/detection"
	"github.com/ironsheep/text-reader/internal/imaging"
	"github.com/ironsheep/text-reader/internal/pipeline"
)

const (
	defaultScanTimeoutMS = 60000
	maxScanTimeoutMS     = 600000

	// Runs never overlap, so a waiting scan sees at most the report of the
	// run before its own ahead of it.
	waiterBuffer = 4
)

// errNoResult is returned by reader_last_result before any scan finished.
var errNoResult = errors.New("no scan has finished yet")

var validate = validator.New()

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "reader_scan").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments jsoniter.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args jsoniter.RawMessage) (interface{}, error) {
	switch name {
	case "reader_scan":
		return s.handleReaderScan(args)
	case "reader_status":
		return s.handleReaderStatus(args)
	case "reader_last_result":
		return s.handleReaderLastResult(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals optional tool arguments and validates them.
func decodeArgs(args jsoniter.RawMessage, v interface{}) error {
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, v); err != nil {
			return err
		}
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// reportView is the JSON form of a pipeline.Report.
type reportView struct {
	RunID          string             `json:"run_id"`
	Outcome        string             `json:"outcome"`
	Readable       bool               `json:"readable"`
	Text           string             `json:"text,omitempty"`
	ErrorCode      string             `json:"error_code,omitempty"`
	Error          string             `json:"error,omitempty"`
	DisplayText    string             `json:"display_text"`
	SpokenText     string             `json:"spoken_text"`
	Regions        []detection.Region `json:"regions"`
	InferenceLabel string             `json:"inference_label,omitempty"`
	InferenceMS    int64              `json:"inference_ms"`
	StartedAt      time.Time          `json:"started_at"`
	DurationMS     int64              `json:"duration_ms"`
	HasOverlay     bool               `json:"has_overlay"`
	Overlay        string             `json:"overlay_png,omitempty"`
}

func newReportView(r pipeline.Report, includeOverlay bool) *reportView {
	v := &reportView{
		RunID:          r.RunID,
		Outcome:        r.Outcome.Kind.String(),
		Readable:       r.Outcome.Readable(),
		Text:           r.Outcome.Text,
		DisplayText:    r.DisplayText,
		SpokenText:     r.SpokenText,
		Regions:        r.Regions,
		InferenceLabel: r.InferenceLabel,
		InferenceMS:    r.InferenceTime.Milliseconds(),
		StartedAt:      r.Started,
		DurationMS:     r.Duration.Milliseconds(),
		HasOverlay:     r.Overlay != nil,
	}
	if v.Regions == nil {
		v.Regions = []detection.Region{}
	}
	if r.Outcome.Err != nil {
		v.ErrorCode = string(r.Outcome.Err.Code)
		v.Error = r.Outcome.Err.Reason()
	}
	if includeOverlay && r.Overlay != nil {
		encoded, err := imaging.EncodePNGBase64(r.Overlay)
		if err == nil {
			v.Overlay = encoded
		}
	}
	return v
}

// === Reader Handlers ===

type readerScanArgs struct {
	Wait      bool `json:"wait"`
	TimeoutMS int  `json:"timeout_ms" validate:"gte=0,lte=600000"`
}

type readerScanResult struct {
	Accepted bool        `json:"accepted"`
	State    string      `json:"state"`
	Report   *reportView `json:"report,omitempty"`
}

func (s *Server) handleReaderScan(args jsoniter.RawMessage) (interface{}, error) {
	var a readerScanArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	if !a.Wait {
		_, accepted := s.scanner.Trigger()
		return &readerScanResult{Accepted: accepted, State: s.scanner.State().String()}, nil
	}

	timeout := time.Duration(a.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = defaultScanTimeoutMS * time.Millisecond
	}

	// register before triggering so a fast run cannot be missed; a run that
	// was already finishing may still deliver its report first
	done := make(chan pipeline.Report, waiterBuffer)
	s.mu.Lock()
	s.waiters = append(s.waiters, done)
	s.mu.Unlock()
	defer s.removeWaiter(done)

	runID, accepted := s.scanner.Trigger()
	if !accepted {
		return &readerScanResult{Accepted: false, State: s.scanner.State().String()}, nil
	}

	expired := time.After(timeout)
	for {
		select {
		case r := <-done:
			if r.RunID != runID {
				s.log.WithFields(logrus.Fields{
					"run_id":  r.RunID,
					"waiting": runID,
				}).Debug("Skipping report of an earlier run")
				continue
			}
			return &readerScanResult{
				Accepted: true,
				State:    s.scanner.State().String(),
				Report:   newReportView(r, false),
			}, nil
		case <-expired:
			return nil, fmt.Errorf("scan did not finish within %v", timeout)
		}
	}
}

func (s *Server) removeWaiter(w chan pipeline.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.waiters {
		if c == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}

type readerStatusResult struct {
	State     string `json:"state"`
	HasResult bool   `json:"has_result"`
}

func (s *Server) handleReaderStatus(args jsoniter.RawMessage) (interface{}, error) {
	_, ok := s.scanner.LastReport()
	return &readerStatusResult{State: s.scanner.State().String(), HasResult: ok}, nil
}

type readerLastResultArgs struct {
	IncludeOverlay bool `json:"include_overlay"`
}

func (s *Server) handleReaderLastResult(args jsoniter.RawMessage) (interface{}, error) {
	var a readerLastResultArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	r, ok := s.scanner.LastReport()
	if !ok {
		return nil, errNoResult
	}
	return newReportView(r, a.IncludeOverlay), nil
}
