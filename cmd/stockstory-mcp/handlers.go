package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/services/tools"
)

// ToolCaller executes a named tool for a session
type ToolCaller interface {
	CallTool(ctx context.Context, sessionID, name string, args map[string]interface{}) (*tools.ToolResult, error)
}

// handleTool forwards an MCP call to the tool set. Tool failures are reported as
// error results rather than protocol errors so the client model can react.
func handleTool(caller ToolCaller, name string, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		sessionID := defaultSession
		if v, ok := args[sessionArg].(string); ok && strings.TrimSpace(v) != "" {
			sessionID = strings.TrimSpace(v)
		}
		delete(args, sessionArg)

		result, err := caller.CallTool(ctx, sessionID, name, args)
		if err != nil {
			logger.Warn().Err(err).Str("tool", name).Str("session_id", sessionID).Msg("Tool call failed")
			return mcp.NewToolResultError(fmt.Sprintf("Error executing %s: %v", name, err)), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}
