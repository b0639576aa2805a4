package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

// -- Test Cases: Initialization --

func TestNewGeminiClient_MissingAPIKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig(config.ProviderGemini)
	cfg.APIKey = ""

	client, err := NewGeminiClient(context.Background(), cfg, logger)
	assert.Nil(t, client)
	assert.EqualError(t, err, "Gemini API Key is required")
}

// -- Test Cases: Request configuration --

func TestGeminiClient_BuildConfig(t *testing.T) {
	cfg := getValidLLMConfig(config.ProviderGemini)
	cfg.SafetyFilters = map[string]string{
		"HARM_CATEGORY_HARASSMENT":  "BLOCK_NONE",
		"HARM_CATEGORY_HATE_SPEECH": "BLOCK_ONLY_HIGH",
	}
	client := &GeminiClient{config: cfg, logger: zap.NewNop()}

	gc := client.buildConfig(schemas.GenerationRequest{
		SystemPrompt: "Extract the table.",
		Options:      schemas.GenerationOptions{MaxTokens: 2048},
	})

	require.NotNil(t, gc.Temperature)
	assert.InDelta(t, 0.7, *gc.Temperature, 0.0001)
	require.NotNil(t, gc.TopP)
	assert.InDelta(t, 0.9, *gc.TopP, 0.0001)
	require.NotNil(t, gc.TopK)
	assert.Equal(t, float32(50), *gc.TopK)
	assert.Equal(t, int32(2048), gc.MaxOutputTokens, "request options override the model default")
	require.NotNil(t, gc.SystemInstruction)
	assert.Equal(t, "Extract the table.", gc.SystemInstruction.Parts[0].Text)
	require.NotNil(t, gc.HTTPOptions)
	assert.Equal(t, cfg.APITimeout, *gc.HTTPOptions.Timeout)

	require.Len(t, gc.SafetySettings, 2)
	assert.Equal(t, genai.HarmCategory("HARM_CATEGORY_HARASSMENT"), gc.SafetySettings[0].Category)
	assert.Equal(t, genai.HarmBlockThreshold("BLOCK_ONLY_HIGH"), gc.SafetySettings[1].Threshold)
}

func TestGeminiFunctions(t *testing.T) {
	params := map[string]any{"type": "object"}
	decls := geminiFunctions([]schemas.ToolSpec{{Name: "ANSWER", Description: "Answer", Parameters: params}})
	require.Len(t, decls, 1)
	assert.Equal(t, "ANSWER", decls[0].Name)
	assert.Equal(t, params, decls[0].ParametersJsonSchema)
}

// -- Test Cases: Response handling --

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "| Platz | 17:00 |\n"},
				{Text: "| P1 | NOT AVAILABLE |"},
			}},
		}},
	}
	assert.Equal(t, "| Platz | 17:00 |\n| P1 | NOT AVAILABLE |", geminiText(resp))
	assert.Empty(t, geminiText(&genai.GenerateContentResponse{}))
	assert.Empty(t, geminiText(nil))
}

func TestNewSafetyError(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			SafetyRatings: []*genai.SafetyRating{
				{Category: genai.HarmCategoryDangerousContent, Probability: genai.HarmProbabilityHigh, Blocked: true},
			},
		}},
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
			BlockReason: genai.BlockedReasonSafety,
			SafetyRatings: []*genai.SafetyRating{
				{Category: genai.HarmCategoryHarassment, Probability: genai.HarmProbabilityNegligible},
			},
		},
	}

	err := newSafetyError(resp)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
	assert.Equal(t, "SAFETY", err.BlockReason)
	require.Len(t, err.Ratings, 2)
	assert.Equal(t, "candidate[0] HARM_CATEGORY_DANGEROUS_CONTENT=HIGH (blocked)", err.Ratings[0])
	assert.Equal(t, "prompt HARM_CATEGORY_HARASSMENT=NEGLIGIBLE", err.Ratings[1])
	assert.Contains(t, err.Error(), "prompt blocked: SAFETY")

	var safety *SafetyError
	require.True(t, errors.As(error(err), &safety))
}

func TestExtractGeminiToolCall(t *testing.T) {
	t.Run("function call", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Scrolling to see later slots."},
					{FunctionCall: &genai.FunctionCall{Name: "SCROLL", Args: map[string]any{"direction": "down"}}},
				}},
			}},
		}
		call, err := extractGeminiToolCall(resp)
		require.NoError(t, err)
		assert.Equal(t, "SCROLL", call.Name)
		assert.JSONEq(t, `{"direction":"down"}`, call.Arguments)
		assert.Equal(t, "Scrolling to see later slots.", call.Text)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := extractGeminiToolCall(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, ErrNoToolCall)
	})
}
