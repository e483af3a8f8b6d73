package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "tool_use", Text: ""},
		{Type: "text", Text: `{"ok":true}`},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, `{"ok":true}`, resp.FirstText())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.FirstText())
}

func TestToSDKMessagesMixedContent(t *testing.T) {
	msgs := []Message{
		{
			Role: "user",
			Content: []ContentPart{
				ImagePart("image/jpeg", "aGVsbG8="),
				TextPart("describe the menu"),
			},
		},
		{
			Role:    "assistant",
			Content: []ContentPart{TextPart("ok")},
		},
	}

	out := toSDKMessages(msgs)
	assert.Len(t, out, 2)
	assert.Len(t, out[0].Content, 2)
	assert.NotNil(t, out[0].Content[0].OfImage)
	assert.NotNil(t, out[0].Content[1].OfText)
	assert.Equal(t, "assistant", string(out[1].Role))
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 18.0, usage.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Equal(t, 0.0, usage.EstimateCost("unknown-model"))
}

func TestEstimateCostWithCache(t *testing.T) {
	usage := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}
	// write = input * 1.25, read = input * 0.1
	assert.InDelta(t, 0.80*1.25+0.80*0.1, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}
