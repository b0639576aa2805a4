package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

const openAIMessageResponse = `{
  "id": "resp_1",
  "object": "response",
  "created_at": 1718000000,
  "status": "completed",
  "model": "gpt-4o",
  "output": [{
    "type": "message",
    "id": "msg_1",
    "status": "completed",
    "role": "assistant",
    "content": [{"type": "output_text", "text": "Thought: go to the schedule.\nAction: CLICK(\"F\")", "annotations": []}]
  }],
  "usage": {"input_tokens": 812, "output_tokens": 14, "total_tokens": 826,
            "input_tokens_details": {"cached_tokens": 0}, "output_tokens_details": {"reasoning_tokens": 0}}
}`

const openAIFunctionCallResponse = `{
  "id": "resp_2",
  "object": "response",
  "status": "completed",
  "model": "gpt-4o",
  "output": [{
    "type": "function_call",
    "id": "fc_1",
    "call_id": "call_1",
    "name": "SCROLL",
    "arguments": "{\"direction\":\"down\"}",
    "status": "completed"
  }],
  "usage": {"input_tokens": 900, "output_tokens": 9, "total_tokens": 909}
}`

// setupOpenAIClient points an OpenAIClient at a test server and captures the request body.
func setupOpenAIClient(t *testing.T, response string) (*OpenAIClient, *map[string]any) {
	t.Helper()
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig(config.ProviderOpenAI)
	cfg.Model = "gpt-4o"
	cfg.Endpoint = server.URL + "/v1/"
	client, err := NewOpenAIClient(cfg, logger)
	require.NoError(t, err)
	return client, &captured
}

func TestNewOpenAIClient_MissingAPIKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig(config.ProviderOpenAI)
	cfg.APIKey = ""

	client, err := NewOpenAIClient(cfg, logger)
	assert.Nil(t, client)
	assert.EqualError(t, err, "OpenAI API Key is required")
}

func TestOpenAIClient_Generate(t *testing.T) {
	client, captured := setupOpenAIClient(t, openAIMessageResponse)

	text, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "You are the actor.",
		UserPrompt:   "Pick the next action.",
		ImagePath:    writeTestImage(t),
		Role:         schemas.RoleActor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Thought: go to the schedule.\nAction: CLICK(\"F\")", text)

	body := *captured
	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, "You are the actor.", body["instructions"])
	assert.EqualValues(t, 300, body["max_output_tokens"])

	input := body["input"].([]any)
	require.Len(t, input, 1)
	content := input[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "input_text", content[0].(map[string]any)["type"])
	image := content[1].(map[string]any)
	assert.Equal(t, "input_image", image["type"])
	assert.True(t, strings.HasPrefix(image["image_url"].(string), "data:image/jpeg;base64,"))
}

func TestOpenAIClient_GenerateToolCall(t *testing.T) {
	client, captured := setupOpenAIClient(t, openAIFunctionCallResponse)

	tools := []schemas.ToolSpec{{
		Name:        "SCROLL",
		Description: "Scroll the page",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}}
	call, err := client.GenerateToolCall(context.Background(), schemas.GenerationRequest{UserPrompt: "go"}, tools)
	require.NoError(t, err)
	assert.Equal(t, "SCROLL", call.Name)
	assert.JSONEq(t, `{"direction":"down"}`, call.Arguments)

	body := *captured
	assert.Equal(t, "required", body["tool_choice"])
	sent := body["tools"].([]any)
	require.Len(t, sent, 1)
	assert.Equal(t, "function", sent[0].(map[string]any)["type"])
	assert.Equal(t, "SCROLL", sent[0].(map[string]any)["name"])
}

func TestOpenAIClient_GenerateMissingImage(t *testing.T) {
	client, _ := setupOpenAIClient(t, openAIMessageResponse)
	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x", ImagePath: "/does/not/exist.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read image")
}

func decodeOpenAIResponse(t *testing.T, raw string) *responses.Response {
	t.Helper()
	var resp responses.Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return &resp
}

func TestExtractOpenAIText(t *testing.T) {
	t.Run("empty output", func(t *testing.T) {
		_, err := extractOpenAIText(decodeOpenAIResponse(t, `{"id":"r","output":[]}`))
		require.ErrorIs(t, err, ErrEmptyResponse)
		assert.Contains(t, err.Error(), "could not extract response text from OpenAI response")
	})

	t.Run("refusal", func(t *testing.T) {
		resp := decodeOpenAIResponse(t, `{"id":"r","output":[{"type":"message","content":[{"type":"refusal","refusal":"I can't help with that."}]}]}`)
		_, err := extractOpenAIText(resp)
		require.ErrorIs(t, err, ErrEmptyResponse)
		assert.Contains(t, err.Error(), "I can't help with that.")
	})
}

func TestExtractOpenAIToolCall(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		call, err := extractOpenAIToolCall(decodeOpenAIResponse(t, openAIMessageResponse))
		require.NoError(t, err)
		assert.Empty(t, call.Name)
		assert.Contains(t, call.Text, "CLICK")
	})

	t.Run("nothing", func(t *testing.T) {
		_, err := extractOpenAIToolCall(decodeOpenAIResponse(t, `{"id":"r","output":[]}`))
		assert.ErrorIs(t, err, ErrNoToolCall)
	})
}
