// internal/llmclient/openai_client.go
package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

// OpenAIClient talks to the OpenAI Responses API. Images are inlined as
// base64 data URLs.
type OpenAIClient struct {
	client openai.Client
	config config.LLMModelConfig
	logger *zap.Logger
}

var _ schemas.ToolCallingClient = (*OpenAIClient)(nil)

// NewOpenAIClient initializes the client.
func NewOpenAIClient(cfg config.LLMModelConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API Key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.APITimeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		config: cfg,
		logger: logger.Named("llm_client.openai"),
	}, nil
}

func (c *OpenAIClient) buildParams(req schemas.GenerationRequest) (responses.ResponseNewParams, error) {
	content := responses.ResponseInputMessageContentListParam{
		{OfInputText: &responses.ResponseInputTextParam{Text: req.UserPrompt}},
	}
	if req.ImagePath != "" {
		encoded, mime, err := readImageBase64(req.ImagePath)
		if err != nil {
			return responses.ResponseNewParams{}, err
		}
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputImage: &responses.ResponseInputImageParam{
				ImageURL: openai.String("data:" + mime + ";base64," + encoded),
				Detail:   responses.ResponseInputImageDetailAuto,
			},
		})
	}

	params := responses.ResponseNewParams{
		Model: c.config.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if req.SystemPrompt != "" {
		params.Instructions = openai.String(req.SystemPrompt)
	}

	temperature, maxTokens := effectiveOptions(c.config, req.Options)
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}
	if maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(maxTokens))
	}
	return params, nil
}

// Generate sends the prompt (and image) and returns the output text.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, params, req.Role)
	if err != nil {
		return "", err
	}
	return extractOpenAIText(resp)
}

// GenerateToolCall forces the model to invoke exactly one of tools.
func (c *OpenAIClient) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, tools []schemas.ToolSpec) (*schemas.ToolCall, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}
	params.Tools = openAITools(tools)
	params.ToolChoice = responses.ResponseNewParamsToolChoiceUnion{
		OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptionsRequired),
	}

	resp, err := c.send(ctx, params, req.Role)
	if err != nil {
		return nil, err
	}
	return extractOpenAIToolCall(resp)
}

func (c *OpenAIClient) send(ctx context.Context, params responses.ResponseNewParams, role schemas.ModelRole) (*responses.Response, error) {
	start := time.Now()
	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		c.logger.Error("OpenAI request failed.", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	c.logger.Info("LLM generation complete (OpenAI)",
		zap.String("role", string(role)),
		zap.String("model", c.config.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("prompt_tokens", resp.Usage.InputTokens),
		zap.Int64("completion_tokens", resp.Usage.OutputTokens),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return resp, nil
}

// Close releases nothing; the SDK client holds no long lived resources.
func (c *OpenAIClient) Close() error { return nil }

func openAITools(specs []schemas.ToolSpec) []responses.ToolUnionParam {
	tools := make([]responses.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		// Strict mode would require every property, optional ones included.
		tool := responses.ToolParamOfFunction(s.Name, s.Parameters, false)
		tool.OfFunction.Description = openai.String(s.Description)
		tools = append(tools, tool)
	}
	return tools
}

// extractOpenAIText concatenates the output_text parts of all message items.
func extractOpenAIText(resp *responses.Response) (string, error) {
	var refusals []string
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "refusal" && part.Refusal != "" {
				refusals = append(refusals, part.Refusal)
			}
		}
	}

	text := strings.TrimSpace(resp.OutputText())
	if text != "" {
		return text, nil
	}
	if len(refusals) > 0 {
		return "", fmt.Errorf("openai model refused: %s: %w", strings.Join(refusals, "; "), ErrEmptyResponse)
	}
	return "", fmt.Errorf("could not extract response text from OpenAI response: %w", ErrEmptyResponse)
}

// extractOpenAIToolCall returns the first function call, or a text-only call
// when the model answered in prose.
func extractOpenAIToolCall(resp *responses.Response) (*schemas.ToolCall, error) {
	text := strings.TrimSpace(resp.OutputText())
	for _, item := range resp.Output {
		if item.Type == "function_call" {
			return &schemas.ToolCall{Name: item.Name, Arguments: item.Arguments, Text: text}, nil
		}
	}
	if text != "" {
		return &schemas.ToolCall{Text: text}, nil
	}
	return nil, ErrNoToolCall
}
