// internal/llmclient/anthropic_client.go
package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

// defaultAnthropicMaxTokens is used when neither config nor request set a limit;
// the Messages API requires one.
const defaultAnthropicMaxTokens = 1024

// AnthropicClient talks to the Claude Messages API.
type AnthropicClient struct {
	client anthropic.Client
	config config.LLMModelConfig
	logger *zap.Logger
}

var _ schemas.ToolCallingClient = (*AnthropicClient)(nil)

// NewAnthropicClient initializes the client.
func NewAnthropicClient(cfg config.LLMModelConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API Key is required")
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

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		config: cfg,
		logger: logger.Named("llm_client.anthropic"),
	}, nil
}

func (c *AnthropicClient) buildParams(req schemas.GenerationRequest) (anthropic.MessageNewParams, error) {
	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.UserPrompt)}
	if req.ImagePath != "" {
		encoded, mime, err := readImageBase64(req.ImagePath)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mime, encoded))
	}

	temperature, maxTokens := effectiveOptions(c.config, req.Options)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}
	return params, nil
}

// Generate sends the prompt (and image) and returns the concatenated text blocks.
func (c *AnthropicClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return "", err
	}
	msg, err := c.send(ctx, params, req.Role)
	if err != nil {
		return "", err
	}
	text := anthropicText(msg)
	if text == "" {
		return "", fmt.Errorf("could not extract response text from Anthropic response: %w", ErrEmptyResponse)
	}
	return text, nil
}

// GenerateToolCall forces the model to use one of tools.
func (c *AnthropicClient) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, tools []schemas.ToolSpec) (*schemas.ToolCall, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}
	params.Tools = anthropicTools(tools)
	params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}

	msg, err := c.send(ctx, params, req.Role)
	if err != nil {
		return nil, err
	}
	return extractAnthropicToolCall(msg)
}

func (c *AnthropicClient) send(ctx context.Context, params anthropic.MessageNewParams, role schemas.ModelRole) (*anthropic.Message, error) {
	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.logger.Error("Anthropic request failed.", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	c.logger.Info("LLM generation complete (Anthropic)",
		zap.String("role", string(role)),
		zap.String("model", c.config.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("prompt_tokens", msg.Usage.InputTokens),
		zap.Int64("completion_tokens", msg.Usage.OutputTokens),
		zap.String("stop_reason", string(msg.StopReason)),
	)
	return msg, nil
}

// Close releases nothing; the SDK client holds no long lived resources.
func (c *AnthropicClient) Close() error { return nil }

func anthropicTools(specs []schemas.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		schema := anthropic.ToolInputSchemaParam{Properties: s.Parameters["properties"]}
		if required, ok := s.Parameters["required"].([]string); ok {
			schema.Required = required
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: schema,
		}})
	}
	return tools
}

func anthropicText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func extractAnthropicToolCall(msg *anthropic.Message) (*schemas.ToolCall, error) {
	text := anthropicText(msg)
	for _, block := range msg.Content {
		if block.Type == "tool_use" {
			return &schemas.ToolCall{Name: block.Name, Arguments: string(block.Input), Text: text}, nil
		}
	}
	if text != "" {
		return &schemas.ToolCall{Text: text}, nil
	}
	return nil, ErrNoToolCall
}
