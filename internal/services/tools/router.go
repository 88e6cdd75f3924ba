package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Router executes agent tool calls and describes the tools for the agent prompt
type Router struct {
	toolset *Toolset
	logger  arbor.ILogger
}

// NewRouter creates a router over a tool set
func NewRouter(toolset *Toolset, logger arbor.ILogger) *Router {
	return &Router{toolset: toolset, logger: logger}
}

// ExecuteTool runs toolUse for the session. Failures become error responses for the agent.
func (r *Router) ExecuteTool(ctx context.Context, sessionID string, toolUse *ToolUse) (*ToolResponse, *ToolResult) {
	startTime := time.Now()

	r.logger.Info().
		Str("tool", toolUse.Name).
		Str("tool_use_id", toolUse.ID).
		Msg("Executing tool")

	result, err := r.toolset.CallTool(ctx, sessionID, toolUse.Name, toolUse.Arguments)
	duration := time.Since(startTime)

	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("tool", toolUse.Name).
			Str("tool_use_id", toolUse.ID).
			Dur("duration", duration).
			Msg("Tool execution failed")

		return &ToolResponse{
			ToolUseID: toolUse.ID,
			Content:   fmt.Sprintf("Error executing tool: %v", err),
			IsError:   true,
		}, nil
	}

	r.logger.Info().
		Str("tool", toolUse.Name).
		Str("tool_use_id", toolUse.ID).
		Int("content_length", len(result.Text)).
		Dur("duration", duration).
		Msg("Tool execution complete")

	return &ToolResponse{ToolUseID: toolUse.ID, Content: result.Text}, result
}

// FormatToolsForPrompt renders the tool list and the call format for the agent system prompt
func (r *Router) FormatToolsForPrompt() string {
	var b strings.Builder
	b.WriteString("# Available Tools\n\n")
	b.WriteString("To use a tool, respond with only a JSON block in this format:\n\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"tool_use\": {\n")
	b.WriteString("    \"id\": \"unique_id\",\n")
	b.WriteString("    \"name\": \"tool_name\",\n")
	b.WriteString("    \"arguments\": {\"arg1\": \"value1\"}\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")

	for _, tool := range r.toolset.ListTools() {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", tool.Name, tool.Description)

		schemaJSON, err := json.MarshalIndent(tool.InputSchema, "", "  ")
		if err != nil {
			continue
		}
		b.WriteString("**Input Schema:**\n```json\n")
		b.Write(schemaJSON)
		b.WriteString("\n```\n\n")
	}

	return b.String()
}
