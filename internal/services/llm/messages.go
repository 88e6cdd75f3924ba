package llm

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
	"google.golang.org/genai"
)

const roleSystem = "system"

var (
	errNoMessages = errors.New("messages cannot be empty")
	errNoUserTurn = errors.New("at least one message must have role 'user'")
)

func validateMessages(messages []interfaces.Message) error {
	if len(messages) == 0 {
		return errNoMessages
	}
	for _, msg := range messages {
		if msg.Role == models.RoleUser {
			return nil
		}
	}
	return errNoUserTurn
}

// splitSystem lifts the first system message out of the conversation.
// Both providers take system text as a separate field.
func splitSystem(messages []interfaces.Message) (string, []interfaces.Message, error) {
	if err := validateMessages(messages); err != nil {
		return "", nil, err
	}

	var system string
	turns := make([]interfaces.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == roleSystem {
			if system == "" {
				system = msg.Content
			}
			continue
		}
		turns = append(turns, msg)
	}
	return system, turns, nil
}

// convertMessagesToClaude maps turns to Claude params; anything not assistant is a user turn
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	system, turns, err := splitSystem(messages)
	if err != nil {
		return nil, "", err
	}

	out := make([]anthropic.MessageParam, len(turns))
	for i, msg := range turns {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == models.RoleAssistant {
			out[i] = anthropic.NewAssistantMessage(block)
		} else {
			out[i] = anthropic.NewUserMessage(block)
		}
	}
	return out, system, nil
}

// convertMessagesToGemini maps turns to Gemini contents, assistant becoming the model role
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	system, turns, err := splitSystem(messages)
	if err != nil {
		return nil, "", err
	}

	out := make([]*genai.Content, len(turns))
	for i, msg := range turns {
		role := genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		}
	}
	return out, system, nil
}
