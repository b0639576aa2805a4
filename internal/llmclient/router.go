package llmclient

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

// LLMRouter implements the LLMClient interface and routes requests by role.
type LLMRouter struct {
	logger  *zap.Logger
	clients map[schemas.ModelRole]schemas.LLMClient
}

var _ schemas.ToolCallingClient = (*LLMRouter)(nil)

// NewLLMRouter creates a router. The actor client is required and serves every
// role without a client of its own.
func NewLLMRouter(logger *zap.Logger, clients map[schemas.ModelRole]schemas.LLMClient) (*LLMRouter, error) {
	if clients[schemas.RoleActor] == nil {
		return nil, fmt.Errorf("an actor client must be provided")
	}
	routes := make(map[schemas.ModelRole]schemas.LLMClient, len(clients))
	for role, c := range clients {
		if c != nil {
			routes[role] = c
		}
	}
	return &LLMRouter{
		logger:  logger.Named("llm_router"),
		clients: routes,
	}, nil
}

// ClientFor returns the client serving role.
func (r *LLMRouter) ClientFor(role schemas.ModelRole) schemas.LLMClient {
	if role == "" {
		role = schemas.RoleActor
	}
	if c, ok := r.clients[role]; ok {
		return c
	}
	return r.clients[schemas.RoleActor]
}

// Generate selects the client for the request's Role.
func (r *LLMRouter) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	r.logger.Debug("Routing LLM request", zap.String("role", string(req.Role)))
	return r.ClientFor(req.Role).Generate(ctx, req)
}

// GenerateToolCall selects the client for the request's Role, which must
// support tool calls.
func (r *LLMRouter) GenerateToolCall(ctx context.Context, req schemas.GenerationRequest, tools []schemas.ToolSpec) (*schemas.ToolCall, error) {
	c := r.ClientFor(req.Role)
	tc, ok := c.(schemas.ToolCallingClient)
	if !ok {
		return nil, fmt.Errorf("client for role %s (%T) does not support tool calls", req.Role, c)
	}
	r.logger.Debug("Routing LLM tool call", zap.String("role", string(req.Role)), zap.Int("tools", len(tools)))
	return tc.GenerateToolCall(ctx, req, tools)
}

// Close closes every distinct client once.
func (r *LLMRouter) Close() error {
	seen := make(map[schemas.LLMClient]bool, len(r.clients))
	var errs []error
	for _, c := range r.clients {
		if seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
