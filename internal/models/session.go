package models

import "time"

// Message roles recorded in session history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// SessionMessage is one role-tagged turn
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an ordered conversation history keyed by ID. Sessions never expire.
type Session struct {
	ID        string           `json:"id"`
	Messages  []SessionMessage `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Usage is a pair of token counts
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Total returns input plus output tokens
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}
