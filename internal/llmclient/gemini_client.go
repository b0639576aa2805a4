// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

// SafetyError reports an empty Gemini response together with the safety
// ratings that explain it.
type SafetyError struct {
	BlockReason string
	Ratings     []string
}

func (e *SafetyError) Error() string {
	msg := "gemini returned no text"
	if e.BlockReason != "" {
		msg += " (prompt blocked: " + e.BlockReason + ")"
	}
	if len(e.Ratings) > 0 {
		msg += "; safety ratings: " + strings.Join(e.Ratings, ", ")
	}
	return msg
}

func (e *SafetyError) Unwrap() error { return ErrEmptyResponse }

// newSafetyError collects candidate and prompt safety ratings from resp.
func newSafetyError(resp *genai.GenerateContentResponse) *SafetyError {
	e := &SafetyError{}
	if resp == nil {
		return e
	}
	for i, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		for _, r := range cand.SafetyRatings {
			e.Ratings = append(e.Ratings, formatRating(fmt.Sprintf("candidate[%d]", i), r))
		}
	}
	if fb := resp.PromptFeedback; fb != nil {
		e.BlockReason = string(fb.BlockReason)
		for _, r := range fb.SafetyRatings {
			e.Ratings = append(e.Ratings, formatRating("prompt", r))
		}
	}
	return e
}

func formatRating(source string, r *genai.SafetyRating) string {
	if r == nil {
		return source + ": unknown"
	}
	s := fmt.Sprintf("%s %s=%s", source, r.Category, r.Probability)
	if r.Blocked {
		s += " (blocked)"
	}
	return s
}

// GeminiClient uses the Gemini API through the genai SDK. Images are uploaded
// with the Files API first and referenced by URI.
type GeminiClient struct {
	client *genai.Client
	config config.LLMModelConfig
	logger *zap.Logger
}

var _ schemas.ToolCallingClient = (*GeminiClient)(nil)

// NewGeminiClient initializes the client.
func NewGeminiClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API Key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

func (c *GeminiClient) buildConfig(req schemas.GenerationRequest) *genai.GenerateContentConfig {
	temperature, maxTokens := effectiveOptions(c.config, req.Options)

	gc := &genai.GenerateContentConfig{
		SafetySettings: c.safetySettings(),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if temperature > 0 {
		gc.Temperature = genai.Ptr(float32(temperature))
	}
	if c.config.TopP > 0 {
		gc.TopP = genai.Ptr(c.config.TopP)
	}
	if c.config.TopK > 0 {
		gc.TopK = genai.Ptr(float32(c.config.TopK))
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}
	if c.config.APITimeout > 0 {
		gc.HTTPOptions = &genai.HTTPOptions{Timeout: genai.Ptr(c.config.APITimeout)}
	}
	return gc
}

// safetySettings maps the configured category → threshold pairs, sorted for
// stable requests.
func (c *GeminiClient) safetySettings() []*genai.SafetySetting {
	if len(c.config.SafetyFilters) == 0 {
		return nil
	}
	categories := make([]string, 0, len(c.config.SafetyFilters))
	for category := range c.config.SafetyFilters {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  genai.HarmCategory(category),
			Threshold: genai.HarmBlockThreshold(c.config.SafetyFilters[category]),
		})
	}
	return settings
}

// contents uploads the request image, if any, and returns the user turn plus
// a cleanup function that deletes the uploaded file.
func (c *GeminiClient) contents(ctx context.Context, req schemas.GenerationRequest) ([]*genai.Content, func(), error) {
	parts := []*genai.Part{genai.NewPartFromText(req.UserPrompt)}
	cleanup := func() {}

	if req.ImagePath != "" {
		file, err := c.client.Files.UploadFromPath(ctx, req.ImagePath, &genai.UploadFileConfig{MIMEType: imageMIMEType(req.ImagePath)})
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to upload image to gemini: %w", err)
		}
		c.logger.Debug("Uploaded image.", zap.String("name", file.Name), zap.String("uri", file.URI))
		parts = append(parts, genai.NewPartFromURI(file.URI, file.MIMEType))
		cleanup = func() {
			delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if _, err := c.client.Files.Delete(delCtx, file.Name, nil); err != nil {
				c.logger.Warn("Failed to delete uploaded image.", zap.String("name", file.Name), zap.Error(err))
			}
		}
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cleanup, nil
}

// Generate uploads the image, generates, and returns the text. An empty reply
// is reported as a *SafetyError.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	contents, cleanup, err := c.contents(ctx, req)
	defer cleanup()
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, contents, c.buildConfig(req), req.Role)
	if err != nil {
		return "", err
	}
	text := geminiText(resp)
	if text == "" {
		return "", newSafetyError(resp)
	}
	return text, nil
}

// GenerateToolCall declares tools as functions and requires the model to call one.
func (c *GeminiClient) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, tools []schemas.ToolSpec) (*schemas.ToolCall, error) {
	contents, cleanup, err := c.contents(ctx, req)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	gc := c.buildConfig(req)
	gc.Tools = []*genai.Tool{{FunctionDeclarations: geminiFunctions(tools)}}
	gc.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAny},
	}

	resp, err := c.send(ctx, contents, gc, req.Role)
	if err != nil {
		return nil, err
	}
	return extractGeminiToolCall(resp)
}

func (c *GeminiClient) send(ctx context.Context, contents []*genai.Content, gc *genai.GenerateContentConfig, role schemas.ModelRole) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, gc)
	if err != nil {
		c.logger.Error("Gemini request failed.", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	fields := []zap.Field{
		zap.String("role", string(role)),
		zap.String("model", c.config.Model),
		zap.Duration("duration", time.Since(start)),
	}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	c.logger.Info("LLM generation complete (Gemini)", fields...)
	return resp, nil
}

// Close releases nothing; the genai client holds no long lived resources.
func (c *GeminiClient) Close() error { return nil }

func geminiFunctions(specs []schemas.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 s.Name,
			Description:          s.Description,
			ParametersJsonSchema: s.Parameters,
		})
	}
	return decls
}

// geminiText joins the non-thought text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			parts = append(parts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func extractGeminiToolCall(resp *genai.GenerateContentResponse) (*schemas.ToolCall, error) {
	text := geminiText(resp)
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p == nil || p.FunctionCall == nil {
				continue
			}
			args, err := json.Marshal(p.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode gemini function arguments: %w", err)
			}
			return &schemas.ToolCall{Name: p.FunctionCall.Name, Arguments: string(args), Text: text}, nil
		}
	}
	if text != "" {
		return &schemas.ToolCall{Text: text}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoToolCall, newSafetyError(resp))
}
