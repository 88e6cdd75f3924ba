package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/tools"
)

// AgentConfig configures the agent conversation loop
type AgentConfig struct {
	MaxTurns     int           // Maximum completion calls per user message
	MaxToolCalls int           // Maximum tool calls per user message
	Timeout      time.Duration // Overall limit; summarizing several weeks takes minutes
}

// DefaultAgentConfig returns the loop defaults
func DefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		MaxTurns:     10,
		MaxToolCalls: 8,
		Timeout:      30 * time.Minute,
	}
}

// ToolExecutor runs agent tool calls
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, sessionID string, toolUse *tools.ToolUse) (*tools.ToolResponse, *tools.ToolResult)
	FormatToolsForPrompt() string
}

// AgentResult is the outcome of one user message
type AgentResult struct {
	Reply string
	// Transcript holds the intermediate assistant tool calls and tool results, in order
	Transcript []models.SessionMessage
	ToolCalls  int
}

// AgentLoop alternates completion calls and tool calls until the model answers
type AgentLoop struct {
	completion interfaces.CompletionService
	tools      ToolExecutor
	threshold  float64
	config     *AgentConfig
	logger     arbor.ILogger
}

// NewAgentLoop creates an agent loop. threshold is quoted in the system prompt.
func NewAgentLoop(completion interfaces.CompletionService, tools ToolExecutor, threshold float64, config *AgentConfig, logger arbor.ILogger) *AgentLoop {
	if config == nil {
		config = DefaultAgentConfig()
	}
	return &AgentLoop{
		completion: completion,
		tools:      tools,
		threshold:  threshold,
		config:     config,
		logger:     logger,
	}
}

// Execute answers userMessage given the prior session history. When generate_stock_story
// succeeds its narrative is returned verbatim as the reply.
func (a *AgentLoop) Execute(ctx context.Context, sessionID string, history []models.SessionMessage, userMessage string) (*AgentResult, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	system := agentSystemPrompt(a.threshold, a.tools.FormatToolsForPrompt())
	messages := toCompletionMessages(history)
	messages = append(messages, interfaces.Message{Role: models.RoleUser, Content: userMessage})

	result := &AgentResult{}
	for turn := 1; turn <= a.config.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("agent loop stopped after %v: %w", time.Since(startTime), err)
		}

		resp, err := a.completion.Complete(ctx, &interfaces.CompletionRequest{System: system, Messages: messages})
		if err != nil {
			return nil, fmt.Errorf("completion failed on turn %d: %w", turn, err)
		}

		toolUse := parseToolUse(resp.Text)
		if toolUse == nil {
			result.Reply = strings.TrimSpace(resp.Text)
			a.logger.Debug().
				Str("session_id", sessionID).
				Int("turns", turn).
				Int("tool_calls", result.ToolCalls).
				Dur("duration", time.Since(startTime)).
				Msg("Agent conversation complete")
			return result, nil
		}

		if result.ToolCalls >= a.config.MaxToolCalls {
			return nil, fmt.Errorf("exceeded maximum tool calls (%d)", a.config.MaxToolCalls)
		}
		result.ToolCalls++

		a.logger.Debug().Str("tool", toolUse.Name).Str("tool_use_id", toolUse.ID).Msg("Agent requested tool use")
		response, toolResult := a.tools.ExecuteTool(ctx, sessionID, toolUse)

		if toolResult != nil && toolResult.Story != "" {
			result.Transcript = append(result.Transcript, transcriptEntry(models.RoleAssistant, resp.Text))
			result.Reply = toolResult.Story
			return result, nil
		}

		toolMsg := fmt.Sprintf("Tool '%s' returned:\n\n%s", toolUse.Name, response.Content)
		if response.IsError {
			toolMsg = fmt.Sprintf("Tool '%s' error:\n\n%s", toolUse.Name, response.Content)
		}

		messages = append(messages,
			interfaces.Message{Role: models.RoleAssistant, Content: resp.Text},
			interfaces.Message{Role: models.RoleUser, Content: toolMsg},
		)
		result.Transcript = append(result.Transcript,
			transcriptEntry(models.RoleAssistant, resp.Text),
			transcriptEntry(models.RoleTool, toolMsg),
		)
	}

	return nil, fmt.Errorf("agent did not complete within %d turns", a.config.MaxTurns)
}

func transcriptEntry(role, content string) models.SessionMessage {
	return models.SessionMessage{Role: role, Content: content, CreatedAt: time.Now()}
}

// toCompletionMessages maps session history to completion roles. Tool results are
// replayed as user turns and the history always starts with a user turn.
func toCompletionMessages(history []models.SessionMessage) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(history)+1)
	for _, m := range history {
		role := models.RoleUser
		if m.Role == models.RoleAssistant {
			role = models.RoleAssistant
		}
		if len(messages) == 0 && role != models.RoleUser {
			continue
		}
		messages = append(messages, interfaces.Message{Role: role, Content: m.Content})
	}
	return messages
}

var toolUsePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\"tool_use\".*\\})\\s*```")

// parseToolUse extracts a tool_use block from a fenced JSON block or a bare JSON reply
func parseToolUse(response string) *tools.ToolUse {
	var candidate string
	if m := toolUsePattern.FindStringSubmatch(response); len(m) > 1 {
		candidate = m[1]
	} else if trimmed := strings.TrimSpace(response); strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, "\"tool_use\"") {
		candidate = trimmed
	} else {
		return nil
	}

	var wrapper struct {
		ToolUse tools.ToolUse `json:"tool_use"`
	}
	if err := json.Unmarshal([]byte(candidate), &wrapper); err != nil || wrapper.ToolUse.Name == "" {
		return nil
	}
	if wrapper.ToolUse.ID == "" {
		wrapper.ToolUse.ID = uuid.New().String()
	}
	if wrapper.ToolUse.Arguments == nil {
		wrapper.ToolUse.Arguments = map[string]interface{}{}
	}
	return &wrapper.ToolUse
}
