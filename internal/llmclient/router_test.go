package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

// -- Test Setup Helper --

// setupRouter initializes an LLMRouter with an actor and a table client.
func setupRouter(t *testing.T) (*LLMRouter, *MockToolClient, *MockLLMClient, *observer.ObservedLogs) {
	t.Helper()
	logger, logs := setupTestLogger(t)

	actor := &MockToolClient{MockLLMClient{Name: "actor"}}
	table := &MockLLMClient{Name: "table"}

	router, err := NewLLMRouter(logger, map[schemas.ModelRole]schemas.LLMClient{
		schemas.RoleActor: actor,
		schemas.RoleTable: table,
	})
	require.NoError(t, err)
	return router, actor, table, logs
}

// -- Test Cases: Initialization --

// Verifies that an actor client is mandatory.
func TestNewLLMRouter_RequiresActor(t *testing.T) {
	logger, _ := setupTestLogger(t)
	_, err := NewLLMRouter(logger, map[schemas.ModelRole]schemas.LLMClient{
		schemas.RoleTable: &MockLLMClient{},
	})
	assert.EqualError(t, err, "an actor client must be provided")
}

// -- Test Cases: Routing --

func TestLLMRouter_Generate_Routing(t *testing.T) {
	router, actor, table, logs := setupRouter(t)
	ctx := context.Background()

	tableReq := schemas.GenerationRequest{UserPrompt: "extract", Role: schemas.RoleTable}
	table.On("Generate", ctx, tableReq).Return("| P1 |", nil).Once()

	// Observer has no client of its own and falls back to the actor.
	observerReq := schemas.GenerationRequest{UserPrompt: "describe", Role: schemas.RoleObserver}
	actor.On("Generate", ctx, observerReq).Return("a page", nil).Once()

	// An empty role is served by the actor too.
	emptyReq := schemas.GenerationRequest{UserPrompt: "act"}
	actor.On("Generate", ctx, emptyReq).Return("CLICK(\"F\")", nil).Once()

	out, err := router.Generate(ctx, tableReq)
	require.NoError(t, err)
	assert.Equal(t, "| P1 |", out)

	out, err = router.Generate(ctx, observerReq)
	require.NoError(t, err)
	assert.Equal(t, "a page", out)

	out, err = router.Generate(ctx, emptyReq)
	require.NoError(t, err)
	assert.Equal(t, "CLICK(\"F\")", out)

	actor.AssertExpectations(t)
	table.AssertExpectations(t)
	assert.Equal(t, 3, logs.FilterMessage("Routing LLM request").Len())
}

func TestLLMRouter_GenerateToolCall(t *testing.T) {
	router, actor, _, _ := setupRouter(t)
	ctx := context.Background()
	tools := []schemas.ToolSpec{{Name: "SCROLL"}}

	req := schemas.GenerationRequest{Role: schemas.RoleActor}
	actor.On("GenerateToolCall", ctx, req, tools).Return(&schemas.ToolCall{Name: "SCROLL", Arguments: `{"direction":"up"}`}, nil).Once()

	call, err := router.GenerateToolCall(ctx, req, tools)
	require.NoError(t, err)
	assert.Equal(t, "SCROLL", call.Name)

	// The table client cannot call tools.
	_, err = router.GenerateToolCall(ctx, schemas.GenerationRequest{Role: schemas.RoleTable}, tools)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support tool calls")

	actor.AssertExpectations(t)
}

// -- Test Cases: Close --

func TestLLMRouter_Close(t *testing.T) {
	logger, _ := setupTestLogger(t)
	shared := &MockToolClient{MockLLMClient{Name: "shared"}}
	table := &MockLLMClient{Name: "table"}
	tableErr := errors.New("close failed")

	shared.On("Close").Return(nil).Once()
	table.On("Close").Return(tableErr).Once()

	router, err := NewLLMRouter(logger, map[schemas.ModelRole]schemas.LLMClient{
		schemas.RoleActor:    shared,
		schemas.RoleObserver: shared,
		schemas.RoleTable:    table,
	})
	require.NoError(t, err)

	err = router.Close()
	assert.ErrorIs(t, err, tableErr)
	shared.AssertNumberOfCalls(t, "Close", 1)
	table.AssertExpectations(t)
	shared.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
