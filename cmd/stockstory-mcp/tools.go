package main

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ternarybob/stockstory/internal/services/tools"
)

// sessionArg scopes summaries to one analysis across calls
const sessionArg = "session_id"

// defaultSession is used when a client does not pass session_id
const defaultSession = "mcp"

// toMCPTool converts a tool definition, adding the optional session_id property
func toMCPTool(tool tools.Tool) (mcp.Tool, error) {
	schema := map[string]interface{}{}
	for k, v := range tool.InputSchema {
		schema[k] = v
	}

	properties := map[string]interface{}{}
	if existing, ok := schema["properties"].(map[string]interface{}); ok {
		for k, v := range existing {
			properties[k] = v
		}
	}
	properties[sessionArg] = map[string]interface{}{
		"type":        "string",
		"description": "Analysis session; summaries are kept per session (default: " + defaultSession + ")",
	}
	schema["type"] = "object"
	schema["properties"] = properties

	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, err
	}
	return mcp.NewToolWithRawSchema(tool.Name, tool.Description, raw), nil
}
