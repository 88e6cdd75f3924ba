package tools

// Tool describes one callable tool and its JSON input schema
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolUse is a tool call requested by the conversational agent
type ToolUse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResponse is the text fed back to the agent after a tool call
type ToolResponse struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error"`
}

// ToolResult is the outcome of Toolset.CallTool
type ToolResult struct {
	Text string
	// Story is set by generate_stock_story so callers can return it verbatim
	Story string
}
