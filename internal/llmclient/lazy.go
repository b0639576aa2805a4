package llmclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

// LazyClient defers building its client until the first request. Roles that a
// run may never reach (table extraction) do not need credentials up front.
type LazyClient struct {
	build func(ctx context.Context) (schemas.LLMClient, error)

	mu     sync.Mutex
	client schemas.LLMClient
	err    error
	built  bool
}

var _ schemas.ToolCallingClient = (*LazyClient)(nil)

// NewLazyClient wraps build. A build error is kept and returned on every call.
func NewLazyClient(build func(ctx context.Context) (schemas.LLMClient, error)) *LazyClient {
	return &LazyClient{build: build}
}

func (c *LazyClient) get(ctx context.Context) (schemas.LLMClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.built {
		c.client, c.err = c.build(ctx)
		c.built = true
	}
	return c.client, c.err
}

// Generate builds the client if needed, then delegates.
func (c *LazyClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	client, err := c.get(ctx)
	if err != nil {
		return "", err
	}
	return client.Generate(ctx, req)
}

// GenerateToolCall builds the client if needed, then delegates.
func (c *LazyClient) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, tools []schemas.ToolSpec) (*schemas.ToolCall, error) {
	client, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	tc, ok := client.(schemas.ToolCallingClient)
	if !ok {
		return nil, fmt.Errorf("wrapped client %T does not support tool calls", client)
	}
	return tc.GenerateToolCall(ctx, req, tools)
}

// Close closes the client if it was ever built.
func (c *LazyClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
