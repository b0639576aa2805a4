// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/config"
)

// NewClient is a factory function that creates an LLMClient for one model
// configuration. role only matters for the replay provider, which serves the
// recordings of that role.
func NewClient(ctx context.Context, cfg config.LLMModelConfig, role schemas.ModelRole, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case config.ProviderReplay:
		return NewRecordedReplayClient(role, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s, %s, %s]",
			cfg.Provider, config.ProviderOpenAI, config.ProviderGemini, config.ProviderAnthropic, config.ProviderReplay)
	}
}

// NewRouterFromConfig builds one client per role and a router over them.
// agent.replay_observer and agent.replay_actor swap those roles to recordings.
// The table client is built on its first request.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LLMRouter, error) {
	roles := map[schemas.ModelRole]config.LLMModelConfig{
		schemas.RoleObserver: cfg.LLM.Observer,
		schemas.RoleActor:    cfg.LLM.Actor,
		schemas.RoleTable:    cfg.LLM.Table,
	}
	if cfg.Agent.Locator.Enabled {
		roles[schemas.RoleLocator] = cfg.LLM.Locator
	}
	if cfg.Agent.ReplayObserver {
		roles[schemas.RoleObserver] = config.LLMModelConfig{Provider: config.ProviderReplay}
	}
	if cfg.Agent.ReplayActor {
		roles[schemas.RoleActor] = config.LLMModelConfig{Provider: config.ProviderReplay}
	}

	clients := make(map[schemas.ModelRole]schemas.LLMClient, len(roles))
	closeAll := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}
	for role, mc := range roles {
		var c schemas.LLMClient
		if role == schemas.RoleTable {
			// Only table actions reach this client, so a run that never
			// extracts a table needs no credentials for it.
			c = NewLazyClient(func(ctx context.Context) (schemas.LLMClient, error) {
				client, err := NewClient(ctx, mc, schemas.RoleTable, logger)
				if err != nil {
					return nil, fmt.Errorf("failed to create %s client: %w", schemas.RoleTable, err)
				}
				return client, nil
			})
		} else {
			var err error
			if c, err = NewClient(ctx, mc, role, logger); err != nil {
				closeAll()
				return nil, fmt.Errorf("failed to create %s client: %w", role, err)
			}
		}
		if mc.Provider != config.ProviderReplay {
			c = NewRateLimitedClient(c, cfg.LLM.RequestsPerMinute)
		}
		clients[role] = c
		logger.Debug("LLM client ready.", zap.String("role", string(role)), zap.String("provider", string(mc.Provider)), zap.String("model", mc.Model))
	}
	return NewLLMRouter(logger, clients)
}
