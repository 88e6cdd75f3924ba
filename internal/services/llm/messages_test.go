package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"google.golang.org/genai"
)

func TestValidateMessages(t *testing.T) {
	assert.Error(t, validateMessages(nil))
	assert.Error(t, validateMessages([]interfaces.Message{{Role: "assistant", Content: "hi"}}))
	assert.NoError(t, validateMessages([]interfaces.Message{{Role: "user", Content: "hi"}}))
}

func TestConvertMessagesToClaude(t *testing.T) {
	msgs := []interfaces.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		{Role: "user", Content: "story for Tesla"},
	}

	out, system, err := convertMessagesToClaude(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	require.Len(t, out, 3)
	assert.EqualValues(t, "user", out[0].Role)
	assert.EqualValues(t, "assistant", out[1].Role)
}

func TestConvertMessagesToGemini(t *testing.T) {
	msgs := []interfaces.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}

	out, system, err := convertMessagesToGemini(msgs)
	require.NoError(t, err)
	assert.Empty(t, system)
	require.Len(t, out, 2)
	assert.Equal(t, genai.RoleUser, out[0].Role)
	assert.Equal(t, genai.RoleModel, out[1].Role)
	assert.Equal(t, "hi", out[1].Parts[0].Text)
}
