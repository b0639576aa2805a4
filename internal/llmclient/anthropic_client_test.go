package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

const anthropicToolUseResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20240620",
  "content": [
    {"type": "text", "text": "The tab is labelled F."},
    {"type": "tool_use", "id": "toolu_1", "name": "CLICK", "input": {"letters": "F"}}
  ],
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 1200, "output_tokens": 40}
}`

func TestNewAnthropicClient_MissingAPIKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig(config.ProviderAnthropic)
	cfg.APIKey = ""

	_, err := NewAnthropicClient(cfg, logger)
	assert.EqualError(t, err, "Anthropic API Key is required")
}

func TestAnthropicClient_GenerateToolCall(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, anthropicToolUseResponse)
	}))
	t.Cleanup(server.Close)

	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig(config.ProviderAnthropic)
	cfg.Endpoint = server.URL + "/"
	client, err := NewAnthropicClient(cfg, logger)
	require.NoError(t, err)

	tools := []schemas.ToolSpec{{
		Name:        "CLICK",
		Description: "Click an element",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"letters": map[string]any{"type": "string"}},
			"required":   []string{"letters"},
		},
	}}
	call, err := client.GenerateToolCall(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "system",
		UserPrompt:   "next action?",
		ImagePath:    writeTestImage(t),
	}, tools)
	require.NoError(t, err)
	assert.Equal(t, "CLICK", call.Name)
	assert.JSONEq(t, `{"letters":"F"}`, call.Arguments)
	assert.Equal(t, "The tab is labelled F.", call.Text)

	assert.EqualValues(t, 300, captured["max_tokens"])
	assert.Equal(t, map[string]any{"type": "any"}, captured["tool_choice"])
	messages := captured["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[1].(map[string]any)["type"])
}

func TestAnthropicTools(t *testing.T) {
	tools := anthropicTools([]schemas.ToolSpec{{
		Name:       "SCROLL",
		Parameters: map[string]any{"properties": map[string]any{"direction": map[string]any{"type": "string"}}, "required": []string{"direction"}},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "SCROLL", tools[0].OfTool.Name)
	assert.Equal(t, []string{"direction"}, tools[0].OfTool.InputSchema.Required)
}

func TestExtractAnthropicToolCall(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		var msg anthropic.Message
		require.NoError(t, json.Unmarshal([]byte(`{"id":"m","content":[{"type":"text","text":"<ANSWER>Platz 2</ANSWER>"}]}`), &msg))
		call, err := extractAnthropicToolCall(&msg)
		require.NoError(t, err)
		assert.Empty(t, call.Name)
		assert.Equal(t, "<ANSWER>Platz 2</ANSWER>", call.Text)
	})

	t.Run("empty", func(t *testing.T) {
		var msg anthropic.Message
		require.NoError(t, json.Unmarshal([]byte(`{"id":"m","content":[]}`), &msg))
		_, err := extractAnthropicToolCall(&msg)
		assert.ErrorIs(t, err, ErrNoToolCall)
	})
}
