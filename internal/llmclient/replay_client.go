// internal/llmclient/replay_client.go
package llmclient

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

//go:embed replay/*.txt
var replayFS embed.FS

// ReplayClient serves recorded responses in order, wrapping around at the end.
// It stands in for a live model when debugging the loop.
type ReplayClient struct {
	logger    *zap.Logger
	responses []string

	mu   sync.Mutex
	next int
}

var _ schemas.ToolCallingClient = (*ReplayClient)(nil)

// NewReplayClient returns a client cycling through responses.
func NewReplayClient(logger *zap.Logger, responses ...string) (*ReplayClient, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("replay client needs at least one response")
	}
	return &ReplayClient{
		logger:    logger.Named("llm_client.replay"),
		responses: responses,
	}, nil
}

// NewRecordedReplayClient serves the embedded transcripts recorded for role,
// e.g. replay/observer_1.txt, replay/observer_2.txt.
func NewRecordedReplayClient(role schemas.ModelRole, logger *zap.Logger) (*ReplayClient, error) {
	responses, err := recordedResponses(role)
	if err != nil {
		return nil, err
	}
	return NewReplayClient(logger, responses...)
}

func recordedResponses(role schemas.ModelRole) ([]string, error) {
	names, err := replayFS.ReadDir("replay")
	if err != nil {
		return nil, fmt.Errorf("failed to list recorded responses: %w", err)
	}
	prefix := string(role) + "_"

	var files []string
	for _, e := range names {
		if strings.HasPrefix(e.Name(), prefix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no recorded responses for role %q", role)
	}

	responses := make([]string, 0, len(files))
	for _, name := range files {
		data, err := replayFS.ReadFile("replay/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read recorded response %s: %w", name, err)
		}
		responses = append(responses, string(data))
	}
	return responses, nil
}

func (c *ReplayClient) take() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.responses[c.next]
	c.next = (c.next + 1) % len(c.responses)
	return r
}

// Generate returns the next recorded response.
func (c *ReplayClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := c.take()
	c.logger.Debug("Serving recorded response.", zap.String("role", string(req.Role)), zap.Int("length", len(r)))
	return r, nil
}

// GenerateToolCall returns the next recorded response as text. Tool-call
// decoding then applies the same rules as to a model that ignored the tools.
func (c *ReplayClient) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, _ []schemas.ToolSpec) (*schemas.ToolCall, error) {
	text, err := c.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &schemas.ToolCall{Text: text}, nil
}

// Close is a no-op.
func (c *ReplayClient) Close() error { return nil }
