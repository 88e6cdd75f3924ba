package interfaces

import (
	"context"

	"github.com/ternarybob/stockstory/internal/models"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user" or "assistant"
	Role string

	// Content contains the text content of the message
	Content string
}

// CompletionRequest is a role-tagged prompt/history sent to the completion service
type CompletionRequest struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// CompletionResponse carries generated text and the token usage reported by the provider
type CompletionResponse struct {
	Text     string
	Usage    models.Usage
	Provider string
	Model    string
}

// CompletionService is the abstract text completion service. It is used for ticker lookup,
// relevance scoring, weekly summarization, narrative composition and chat replies.
type CompletionService interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// UserPrompt is a convenience for single-turn requests
func UserPrompt(system, prompt string) *CompletionRequest {
	return &CompletionRequest{
		System:   system,
		Messages: []Message{{Role: "user", Content: prompt}},
	}
}

// UsageRecorder accumulates token usage for operator reporting
type UsageRecorder interface {
	Add(inputTokens, outputTokens int64)
}
