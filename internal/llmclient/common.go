// internal/llmclient/common.go
package llmclient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoToolCall is returned when a tool-calling request yields neither a
	// tool invocation nor text.
	ErrNoToolCall = errors.New("model returned no tool call")
)

// imageMIMEType guesses the media type of a capture from its extension.
func imageMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// readImageBase64 loads the image at path and returns it base64 encoded.
func readImageBase64(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), imageMIMEType(path), nil
}

// effectiveOptions lets per-request options override the model defaults.
func effectiveOptions(cfg config.LLMModelConfig, opts schemas.GenerationOptions) (temperature float64, maxTokens int) {
	temperature = float64(cfg.Temperature)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	maxTokens = cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	return temperature, maxTokens
}
