package llmclient

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

// RateLimitedClient paces calls to the wrapped client.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
}

var _ schemas.ToolCallingClient = (*RateLimitedClient)(nil)

// NewRateLimitedClient allows perMinute requests per minute with a burst of one.
// A non-positive rate returns next unchanged.
func NewRateLimitedClient(next schemas.LLMClient, perMinute float64) schemas.LLMClient {
	if perMinute <= 0 {
		return next
	}
	interval := time.Duration(float64(time.Minute) / perMinute)
	return &RateLimitedClient{next: next, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Generate waits for a token, then delegates.
func (c *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return c.next.Generate(ctx, req)
}

// GenerateToolCall waits for a token, then delegates. The wrapped client must
// support tool calls.
func (c *RateLimitedClient) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, tools []schemas.ToolSpec) (*schemas.ToolCall, error) {
	tc, ok := c.next.(schemas.ToolCallingClient)
	if !ok {
		return nil, fmt.Errorf("wrapped client %T does not support tool calls", c.next)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return tc.GenerateToolCall(ctx, req, tools)
}

// Close closes the wrapped client.
func (c *RateLimitedClient) Close() error { return c.next.Close() }
