package server

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/text-reader/internal/detection"
	readerrors "github.com/ironsheep/text-reader/internal/errors"
	"github.com/ironsheep/text-reader/internal/pipeline"
)

// callTool issues a tools/call request and returns the decoded text content.
func callTool(t *testing.T, s *Server, name, args string) (map[string]interface{}, *MCPError) {
	t.Helper()

	params := `{"name":"` + name + `"`
	if args != "" {
		params += `,"arguments":` + args
	}
	params += "}"

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  []byte(params),
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return decoded, nil
}

func sampleReport() pipeline.Report {
	return pipeline.Report{
		RunID:          "run-1",
		Outcome:        pipeline.Outcome{Kind: pipeline.Success, Text: "STOP."},
		Regions:        []detection.Region{{X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.2, Confidence: 0.9, Label: "text"}},
		InferenceTime:  42 * time.Millisecond,
		InferenceLabel: "42ms + OCR",
		DisplayText:    "STOP.",
		SpokenText:     "STOP.",
		Overlay:        image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Started:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:       1500 * time.Millisecond,
	}
}

func TestHandleToolsCall_ReaderScan(t *testing.T) {
	scanner := &fakeScanner{}
	s, _ := newTestServer(t, scanner)

	result, mcpErr := callTool(t, s, "reader_scan", "")
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	if result["accepted"] != true {
		t.Errorf("accepted: got %v", result["accepted"])
	}
	if result["state"] != "capturing" {
		t.Errorf("state: got %v", result["state"])
	}
	if _, ok := result["report"]; ok {
		t.Error("report should only be returned with wait")
	}
	if scanner.triggers != 1 {
		t.Errorf("triggers: got %d", scanner.triggers)
	}
}

func TestHandleToolsCall_ReaderScanRejected(t *testing.T) {
	scanner := &fakeScanner{reject: true, state: pipeline.Recognizing}
	s, _ := newTestServer(t, scanner)

	for _, args := range []string{"", `{"wait":true,"timeout_ms":50}`} {
		result, mcpErr := callTool(t, s, "reader_scan", args)
		if mcpErr != nil {
			t.Fatalf("Unexpected error: %+v", mcpErr)
		}
		if result["accepted"] != false || result["state"] != "recognizing" {
			t.Errorf("args %q: got %v", args, result)
		}
	}

	if len(s.waiters) != 0 {
		t.Errorf("rejected scans must not leave waiters: %d", len(s.waiters))
	}
}

func TestHandleToolsCall_ReaderScanWait(t *testing.T) {
	scanner := &fakeScanner{}
	s, _ := newTestServer(t, scanner)

	// the outcome arrives from another goroutine, like the pipeline's main executor
	scanner.onTrigger = func() {
		go func() {
			time.Sleep(10 * time.Millisecond)
			scanner.mu.Lock()
			scanner.state = pipeline.Idle
			scanner.mu.Unlock()
			s.OnOutcome(sampleReport())
		}()
	}

	result, mcpErr := callTool(t, s, "reader_scan", `{"wait":true}`)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	report, ok := result["report"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a report, got %v", result)
	}
	if report["text"] != "STOP." || report["outcome"] != "success" || report["readable"] != true {
		t.Errorf("report: %v", report)
	}
	if report["inference_label"] != "42ms + OCR" {
		t.Errorf("inference_label: got %v", report["inference_label"])
	}
	if _, ok := report["overlay_png"]; ok {
		t.Error("scan reports should not inline the overlay")
	}
	if result["state"] != "idle" {
		t.Errorf("state: got %v", result["state"])
	}
}

func TestHandleToolsCall_ReaderScanWaitSkipsEarlierRun(t *testing.T) {
	scanner := &fakeScanner{runID: "run-2"}
	s, _ := newTestServer(t, scanner)

	earlier := sampleReport()
	earlier.RunID = "run-1"
	earlier.Outcome.Text = "FIRST."

	current := sampleReport()
	current.RunID = "run-2"
	current.Outcome.Text = "SECOND."

	// the earlier run finishes while the new trigger is being accepted
	scanner.onTrigger = func() {
		s.OnOutcome(earlier)
		go func() {
			time.Sleep(10 * time.Millisecond)
			s.OnOutcome(current)
		}()
	}

	result, mcpErr := callTool(t, s, "reader_scan", `{"wait":true,"timeout_ms":5000}`)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	report, ok := result["report"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a report, got %v", result)
	}
	if report["run_id"] != "run-2" || report["text"] != "SECOND." {
		t.Errorf("waited scan got the wrong run: %v", report)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.waiters) != 0 {
		t.Errorf("finished scan should remove its waiter: %d", len(s.waiters))
	}
}

func TestHandleToolsCall_ReaderScanWaitTimeout(t *testing.T) {
	s, _ := newTestServer(t, &fakeScanner{})

	start := time.Now()
	_, mcpErr := callTool(t, s, "reader_scan", `{"wait":true,"timeout_ms":30}`)
	if mcpErr == nil {
		t.Fatal("expected a timeout error")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("code: got %d", mcpErr.Code)
	}
	if !strings.Contains(mcpErr.Data.(string), "did not finish") {
		t.Errorf("data: got %v", mcpErr.Data)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("wait should honor timeout_ms")
	}
	if len(s.waiters) != 0 {
		t.Error("timed out waiter should be removed")
	}
}

func TestHandleToolsCall_ReaderScanInvalidArgs(t *testing.T) {
	s, _ := newTestServer(t, &fakeScanner{})

	tests := []struct {
		name string
		args string
	}{
		{"negative timeout", `{"timeout_ms":-1}`},
		{"timeout too large", `{"timeout_ms":600001}`},
		{"wrong type", `{"wait":"yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, "reader_scan", tt.args)
			if mcpErr == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestHandleToolsCall_ReaderStatus(t *testing.T) {
	scanner := &fakeScanner{state: pipeline.Detecting}
	s, _ := newTestServer(t, scanner)

	result, mcpErr := callTool(t, s, "reader_status", "")
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["state"] != "detecting" || result["has_result"] != false {
		t.Errorf("status: got %v", result)
	}

	r := sampleReport()
	scanner.last = &r
	result, _ = callTool(t, s, "reader_status", "{}")
	if result["has_result"] != true {
		t.Errorf("has_result: got %v", result["has_result"])
	}
}

func TestHandleToolsCall_ReaderLastResult(t *testing.T) {
	scanner := &fakeScanner{}
	s, _ := newTestServer(t, scanner)

	_, mcpErr := callTool(t, s, "reader_last_result", "")
	if mcpErr == nil || mcpErr.Data != errNoResult.Error() {
		t.Fatalf("expected no-result error, got %+v", mcpErr)
	}

	r := sampleReport()
	scanner.last = &r

	result, mcpErr := callTool(t, s, "reader_last_result", "")
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["run_id"] != "run-1" || result["display_text"] != "STOP." || result["duration_ms"] != float64(1500) {
		t.Errorf("result: %v", result)
	}
	if result["has_overlay"] != true {
		t.Error("has_overlay should be true")
	}
	if _, ok := result["overlay_png"]; ok {
		t.Error("overlay should only be included on request")
	}
	regions := result["regions"].([]interface{})
	if len(regions) != 1 || regions[0].(map[string]interface{})["label"] != "text" {
		t.Errorf("regions: got %v", regions)
	}

	result, _ = callTool(t, s, "reader_last_result", `{"include_overlay":true}`)
	png, _ := result["overlay_png"].(string)
	if !strings.HasPrefix(png, "iVBOR") {
		t.Errorf("overlay should be a base64 PNG, got %.20q", png)
	}
}

func TestHandleToolsCall_FailureReport(t *testing.T) {
	scanner := &fakeScanner{}
	s, _ := newTestServer(t, scanner)

	r := pipeline.Report{
		RunID: "run-2",
		Outcome: pipeline.Outcome{
			Kind: pipeline.RecognitionFailure,
			Err:  readerrors.NewCaptureError("run-2", errors.New("camera busy")),
		},
		DisplayText: "Error: camera busy",
		SpokenText:  pipeline.CaptureFailedSpoken,
	}
	scanner.last = &r

	result, mcpErr := callTool(t, s, "reader_last_result", "")
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["outcome"] != "failure" || result["error_code"] != "CAPTURE_FAILED" || result["error"] != "camera busy" {
		t.Errorf("result: %v", result)
	}
	if regions, ok := result["regions"].([]interface{}); !ok || len(regions) != 0 {
		t.Errorf("regions should be an empty list, got %v", result["regions"])
	}
	if _, ok := result["text"]; ok {
		t.Error("failures carry no text")
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s, _ := newTestServer(t, &fakeScanner{})

	_, mcpErr := callTool(t, s, "image_load", `{"path":"/x.png"}`)
	if mcpErr == nil {
		t.Fatal("expected an error for an unknown tool")
	}
	if mcpErr.Code != -32000 || !strings.Contains(mcpErr.Data.(string), "unknown tool") {
		t.Errorf("error: %+v", mcpErr)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s, _ := newTestServer(t, &fakeScanner{})

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  []byte(`[1,2,3]`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected invalid params error, got %+v", resp.Error)
	}
}
