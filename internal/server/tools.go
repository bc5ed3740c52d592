package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "reader_scan",
			Description: "Capture a still image, detect text regions, recognize them and speak the result. Rejected while a scan is already running. With wait=true the call returns the finished scan report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Wait for the scan to finish and return its report. Default false",
						"default":     false,
					},
					"timeout_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum time to wait in milliseconds when wait is true. Default 60000",
						"default":     defaultScanTimeoutMS,
						"minimum":     1,
						"maximum":     maxScanTimeoutMS,
					},
				},
			},
		},
		{
			Name:        "reader_status",
			Description: "Get the current pipeline state (idle, capturing, detecting, recognizing, done) and whether a scan result is available.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "reader_last_result",
			Description: "Get the report of the most recent finished scan: outcome, recognized text, spoken message, detected regions and detector timing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the frame with the detected regions drawn on it as base64-encoded PNG, when overlays are enabled. Default false",
						"default":     false,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
