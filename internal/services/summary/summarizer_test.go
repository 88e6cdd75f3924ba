package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

type mockCompletion struct {
	mock.Mock
}

func (m *mockCompletion) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.CompletionResponse), args.Error(1)
}

const label = "02/17/2025 to 02/21/2025"

func ranked() []models.RankedArticle {
	return []models.RankedArticle{
		{Article: models.Article{Title: "Profit beats", URL: "https://www.ft.com/a", Content: "Profit beat estimates."}, Score: 9},
		{Article: models.Article{Title: "CEO departs", URL: "https://www.wsj.com/b", Content: "The CEO stepped down."}, Score: 7, Index: 1},
	}
}

func TestSummarize_Success(t *testing.T) {
	completion := new(mockCompletion)
	completion.On("Complete", mock.Anything, mock.Anything).
		Return(&interfaces.CompletionResponse{Text: "  Earnings lifted sentiment.  "}, nil)

	got := NewSummarizer(completion, 0, arbor.NewLogger()).Summarize(context.Background(), label, ranked())

	assert.True(t, got.Success)
	assert.Equal(t, label, got.DateRange)
	assert.Equal(t, MsgGenerated, got.Message)
	assert.Equal(t, "🔗 **Referenced URLs:**\n• https://www.ft.com/a\n• https://www.wsj.com/b\n\nEarnings lifted sentiment.", got.Summary)

	req := completion.Calls[0].Arguments.Get(1).(*interfaces.CompletionRequest)
	assert.Contains(t, req.System, "under 100 words")
	assert.Contains(t, req.System, "Do not include numbers or percentages")
	prompt := req.Messages[0].Content
	assert.True(t, strings.HasPrefix(prompt, "Generate a concise summary for the week "+label))
	assert.Contains(t, prompt, "Title: Profit beats\nContent: Profit beat estimates.\n\nTitle: CEO departs")
}

func TestSummarize_EmptyInputSkipsCompletion(t *testing.T) {
	completion := new(mockCompletion)
	got := NewSummarizer(completion, 100, arbor.NewLogger()).Summarize(context.Background(), label, nil)

	assert.False(t, got.Success)
	assert.Equal(t, MsgNoArticles, got.Message)
	assert.Empty(t, got.Summary)
	completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestSummarize_CompletionFailure(t *testing.T) {
	completion := new(mockCompletion)
	completion.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	got := NewSummarizer(completion, 80, arbor.NewLogger()).Summarize(context.Background(), label, ranked())

	assert.False(t, got.Success)
	assert.Empty(t, got.Summary)
	assert.Equal(t, "Error generating weekly summary: quota exceeded", got.Message)
}

func TestSummarize_EmptyReplyAndPanic(t *testing.T) {
	empty := new(mockCompletion)
	empty.On("Complete", mock.Anything, mock.Anything).Return(&interfaces.CompletionResponse{Text: " "}, nil)
	got := NewSummarizer(empty, 0, arbor.NewLogger()).Summarize(context.Background(), label, ranked())
	assert.False(t, got.Success)

	panicking := new(mockCompletion)
	panicking.On("Complete", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	require.NotPanics(t, func() {
		got = NewSummarizer(panicking, 0, arbor.NewLogger()).Summarize(context.Background(), label, ranked())
	})
	assert.False(t, got.Success)
	assert.Equal(t, label, got.DateRange)
	assert.Contains(t, got.Message, "boom")
}

func TestProvenanceBlock(t *testing.T) {
	assert.Equal(t, ProvenanceHeader, ProvenanceBlock(nil))
	assert.Equal(t, ProvenanceHeader+"\n• u", ProvenanceBlock([]string{"u"}))
}
