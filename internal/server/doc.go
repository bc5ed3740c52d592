// Package server implements the MCP (Model Context Protocol) server that
// fronts the text reader pipeline.
//
// The server is the user-facing surface of the reader: a client triggers a
// scan, polls the pipeline state and fetches the last result, and is told
// about every finished scan through a notification.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - reader_scan: Start a scan; optionally wait for its report
//   - reader_status: Current pipeline state
//   - reader_last_result: Report of the most recent scan
//
// A scan requested while another one runs is not queued: reader_scan answers
// with accepted=false and the current state.
//
// # Notifications
//
// Every finished scan is pushed as notifications/reader/outcome with the same
// report shape reader_last_result returns (without the overlay image).
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A failed scan is not a tool error; its report carries the error code and
// the message that was spoken.
package server
