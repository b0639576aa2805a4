package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

func TestReplayClient_Cycles(t *testing.T) {
	client, err := NewReplayClient(zap.NewNop(), "one", "two")
	require.NoError(t, err)
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		out, err := client.Generate(ctx, schemas.GenerationRequest{})
		require.NoError(t, err)
		got = append(got, out)
	}
	assert.Equal(t, []string{"one", "two", "one"}, got)
	assert.NoError(t, client.Close())
}

func TestNewReplayClient_Empty(t *testing.T) {
	_, err := NewReplayClient(zap.NewNop())
	assert.Error(t, err)
}

func TestReplayClient_CanceledContext(t *testing.T) {
	client, err := NewReplayClient(zap.NewNop(), "one")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Generate(ctx, schemas.GenerationRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRecordedReplayClient(t *testing.T) {
	ctx := context.Background()

	t.Run("observer", func(t *testing.T) {
		client, err := NewRecordedReplayClient(schemas.RoleObserver, zap.NewNop())
		require.NoError(t, err)
		assert.Len(t, client.responses, 2)
		first, err := client.Generate(ctx, schemas.GenerationRequest{})
		require.NoError(t, err)
		assert.NotEmpty(t, first)
	})

	t.Run("actor", func(t *testing.T) {
		client, err := NewRecordedReplayClient(schemas.RoleActor, zap.NewNop())
		require.NoError(t, err)
		call, err := client.GenerateToolCall(ctx, schemas.GenerationRequest{}, nil)
		require.NoError(t, err)
		assert.Empty(t, call.Name)
		assert.Contains(t, call.Text, `CLICK("F")`)
	})

	t.Run("no recordings", func(t *testing.T) {
		_, err := NewRecordedReplayClient(schemas.RoleLocator, zap.NewNop())
		assert.EqualError(t, err, `no recorded responses for role "locator"`)
	})
}
