// Package llm implements the text completion service over Anthropic Claude and Google Gemini.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/services/ledger"
)

// backend generates one completion without retries
type backend interface {
	generate(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error)
	name() string
}

// Service implements interfaces.CompletionService. Every successful call is recorded
// in the usage recorder, estimating tokens when the provider reports none.
type Service struct {
	provider common.LLMProvider
	gemini   *common.GeminiConfig
	claude   *common.ClaudeConfig
	recorder interfaces.UsageRecorder
	retry    *RetryConfig
	logger   arbor.ILogger

	mu      sync.Mutex
	backend backend
}

// NewService creates a completion service for the configured default provider.
// Provider clients are created lazily on first use.
func NewService(config *common.Config, recorder interfaces.UsageRecorder, logger arbor.ILogger) *Service {
	retry := NewDefaultRetryConfig()
	if config.LLM.MaxRetries >= 0 {
		retry.MaxRetries = config.LLM.MaxRetries
	}
	return &Service{
		provider: config.LLM.DefaultProvider,
		gemini:   &config.Gemini,
		claude:   &config.Claude,
		recorder: recorder,
		retry:    retry,
		logger:   logger,
	}
}

func (s *Service) getBackend(ctx context.Context) (backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		return s.backend, nil
	}

	var (
		b   backend
		err error
	)
	switch s.provider {
	case common.LLMProviderGemini:
		b, err = newGeminiBackend(ctx, s.gemini)
	default:
		b, err = newClaudeBackend(s.claude)
	}
	if err != nil {
		return nil, err
	}

	s.backend = b
	return b, nil
}

// Complete generates text for the request, retrying transient failures
func (s *Service) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	b, err := s.getBackend(ctx)
	if err != nil {
		return nil, err
	}

	var (
		resp   *interfaces.CompletionResponse
		apiErr error
	)
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		resp, apiErr = b.generate(ctx, req)
		if apiErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == s.retry.MaxRetries {
			break
		}

		backoff := s.retry.Backoff(attempt, apiErr)
		s.logger.Warn().
			Str("provider", b.name()).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying completion call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("%s completion failed after %d retries: %w", b.name(), s.retry.MaxRetries, apiErr)
	}

	if resp.Usage.InputTokens == 0 && resp.Usage.OutputTokens == 0 {
		prompt := req.System
		for _, msg := range req.Messages {
			prompt += msg.Content
		}
		resp.Usage.InputTokens = ledger.EstimateTokens(prompt)
		resp.Usage.OutputTokens = ledger.EstimateTokens(resp.Text)
	}
	if s.recorder != nil {
		s.recorder.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	s.logger.Debug().
		Str("provider", resp.Provider).
		Str("model", resp.Model).
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Msg("Completion generated")

	return resp, nil
}

func parseTimeout(value string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}
