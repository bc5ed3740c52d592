package server

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/text-reader/internal/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Scanner is the pipeline surface the server drives. Trigger returns the ID
// of the started run, the RunID of its report.
type Scanner interface {
	Trigger() (string, bool)
	State() pipeline.State
	LastReport() (pipeline.Report, bool)
}

// Server handles MCP protocol communication
type Server struct {
	scanner Scanner
	version string
	log     logrus.FieldLogger

	in  io.Reader
	out io.Writer

	writeMu sync.Mutex
	encoder *jsoniter.Encoder

	mu      sync.Mutex
	waiters []chan pipeline.Report
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      interface{}         `json:"id"`
	Method  string              `json:"method"`
	Params  jsoniter.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// OutcomeNotification is the method used to push finished scans.
const OutcomeNotification = "notifications/reader/outcome"

// New creates a server on stdin/stdout.
func New(scanner Scanner, version string, log logrus.FieldLogger) *Server {
	return NewWithIO(scanner, version, log, os.Stdin, os.Stdout)
}

// NewWithIO creates a server reading requests from in and writing to out.
func NewWithIO(scanner Scanner, version string, log logrus.FieldLogger, in io.Reader, out io.Writer) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		scanner: scanner,
		version: version,
		log:     log.WithField("component", "server"),
		in:      in,
		out:     out,
		encoder: json.NewEncoder(out),
	}
}

// Run reads requests until the input is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("Failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.write(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// OnOutcome pushes a finished scan to the client and hands it to every
// waiting scan; each waiter keeps only the report of its own run. It
// implements pipeline.Listener and never blocks.
func (s *Server) OnOutcome(r pipeline.Report) {
	s.mu.Lock()
	waiters := append([]chan pipeline.Report(nil), s.waiters...)
	s.mu.Unlock()

	for _, w := range waiters {
		select {
		case w <- r:
		default:
		}
	}

	go s.write(&MCPNotification{
		JSONRPC: "2.0",
		Method:  OutcomeNotification,
		Params:  newReportView(r, false),
	})
}

func (s *Server) write(v interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.encoder.Encode(v); err != nil {
		s.log.WithError(err).Error("Failed to encode message")
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "text-reader",
				"version": s.version,
			},
		},
	}
}
