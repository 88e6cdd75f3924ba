package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
	"google.golang.org/genai"
)

type geminiBackend struct {
	client  *genai.Client
	config  *common.GeminiConfig
	timeout time.Duration
}

func newGeminiBackend(ctx context.Context, config *common.GeminiConfig) (*geminiBackend, error) {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiBackend{
		client:  client,
		config:  config,
		timeout: parseTimeout(config.Timeout),
	}, nil
}

func (b *geminiBackend) name() string {
	return string(common.LLMProviderGemini)
}

func (b *geminiBackend) generate(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	contents, systemText, err := convertMessagesToGemini(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}
	if req.System != "" {
		systemText = req.System
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = b.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.config.MaxTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temp),
		MaxOutputTokens: int32(maxTokens),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.Models.GenerateContent(callCtx, b.config.Model, contents, config)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty text in Gemini response")
	}

	var usage models.Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &interfaces.CompletionResponse{
		Text:     text,
		Usage:    usage,
		Provider: b.name(),
		Model:    b.config.Model,
	}, nil
}
