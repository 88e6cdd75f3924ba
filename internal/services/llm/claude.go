package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

type claudeBackend struct {
	client  anthropic.Client
	config  *common.ClaudeConfig
	timeout time.Duration
}

func newClaudeBackend(config *common.ClaudeConfig) (*claudeBackend, error) {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	return &claudeBackend{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		config:  config,
		timeout: parseTimeout(config.Timeout),
	}, nil
}

func (b *claudeBackend) name() string {
	return string(common.LLMProviderClaude)
}

func (b *claudeBackend) generate(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	messages, systemText, err := convertMessagesToClaude(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}
	if req.System != "" {
		systemText = req.System
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.config.Model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = b.config.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.Messages.New(callCtx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	return &interfaces.CompletionResponse{
		Text: text.String(),
		Usage: models.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		Provider: b.name(),
		Model:    b.config.Model,
	}, nil
}
