// internal/agent/runner.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/action"
	"github.com/xkilldash9x/courtpilot/internal/config"
	"github.com/xkilldash9x/courtpilot/internal/observability"
	"github.com/xkilldash9x/courtpilot/internal/screenshot"
)

// Result summarizes a run.
type Result struct {
	RunID    string          `json:"run_id"`
	Answer   string          `json:"answer,omitempty"`
	Answered bool            `json:"answered"`
	Rounds   int             `json:"rounds"`
	Actions  []action.Action `json:"actions"`
}

// Runner drives the observer/actor loop over one page.
type Runner struct {
	agent      config.AgentConfig
	shots      config.ScreenshotConfig
	page       Page
	llm        schemas.LLMClient
	store      *screenshot.Store
	catalog    *action.Catalog
	parser     *action.Parser
	dispatcher *Dispatcher
	transcript *observability.Transcript
	logger     *zap.Logger
}

// NewRunner wires a Runner from cfg. llm routes requests by role; in tool-call
// mode it must also implement schemas.ToolCallingClient.
func NewRunner(cfg *config.Config, page Page, llm schemas.LLMClient, transcript *observability.Transcript, logger *zap.Logger) (*Runner, error) {
	if err := cfg.Agent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent configuration: %w", err)
	}
	if cfg.Agent.Mode == config.ModeToolCall {
		if _, ok := llm.(schemas.ToolCallingClient); !ok {
			return nil, fmt.Errorf("mode %s requires a tool-calling client, got %T", config.ModeToolCall, llm)
		}
	}

	catalog, err := action.NewCatalog(action.CatalogOptions{
		Table:   action.Kind(strings.ToUpper(string(cfg.Agent.ToolSet))),
		Input:   cfg.Agent.EnableInput,
		Locator: cfg.Agent.Locator.Enabled,
	})
	if err != nil {
		return nil, err
	}

	opts := DispatcherOptions{
		ScrollDelta: cfg.Agent.ScrollDelta,
		FocusWait:   cfg.Agent.HintWait,
		Transcript:  transcript,
	}
	if cfg.Agent.Locator.Enabled {
		grid := screenshot.Grid{Columns: cfg.Agent.Locator.Columns, Rows: cfg.Agent.Locator.Rows}
		opts.Locator = NewLocator(llm, page, grid, transcript, logger)
	}

	return &Runner{
		agent:      cfg.Agent,
		shots:      cfg.Screenshots,
		page:       page,
		llm:        llm,
		store:      screenshot.NewStore(cfg.Screenshots.Dir, logger),
		catalog:    catalog,
		parser:     action.NewParser(catalog.TableKind()),
		dispatcher: NewDispatcher(page, llm, opts, logger),
		transcript: transcript,
		logger:     logger.Named("agent"),
	}, nil
}

// Catalog returns the tools offered to the actor.
func (r *Runner) Catalog() *action.Catalog { return r.catalog }

// Run navigates to startURL (when set) and plays up to the configured number
// of rounds, stopping at the first answer. Any error ends the run; the
// partial Result is returned alongside it.
func (r *Runner) Run(ctx context.Context, task, startURL string) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", result.RunID))
	logger.Info("Starting run.", zap.Int("rounds", r.agent.Rounds), zap.String("mode", string(r.agent.Mode)), zap.Strings("tools", r.catalog.Names()))

	if startURL != "" {
		if err := r.page.Navigate(ctx, startURL); err != nil {
			return result, err
		}
		if err := sleep(ctx, r.agent.InitialWait); err != nil {
			return result, err
		}
	}

	var tableText string
	for round := 1; round <= r.agent.Rounds; round++ {
		logger.Info(fmt.Sprintf("########## ROUND %d ##########", round))
		result.Rounds = round

		obs, err := r.capture(ctx)
		if err != nil {
			return result, fmt.Errorf("round %d: %w", round, err)
		}
		obs.Task = task

		info, err := r.page.ScrollInfo(ctx)
		if err != nil {
			return result, fmt.Errorf("round %d: %w", round, err)
		}

		description := tableText
		if description == "" {
			if description, err = r.observe(ctx, obs.ImagePath); err != nil {
				return result, fmt.Errorf("round %d: %w", round, err)
			}
		} else {
			logger.Debug("Reusing table extraction as page description.")
		}
		description += info.Describe()

		act, err := r.decide(ctx, task, description, obs.ImagePath)
		if err != nil {
			return result, fmt.Errorf("round %d: %w", round, err)
		}
		result.Actions = append(result.Actions, act)
		logger.Info("Actor chose action.", zap.Int("round", round), zap.String("action", act.String()), zap.String("thought", act.Thought))

		outcome, err := r.dispatcher.Dispatch(ctx, act, obs)
		if err != nil {
			return result, fmt.Errorf("round %d: %w", round, err)
		}
		if outcome.Done {
			result.Answer = outcome.Answer
			result.Answered = true
			logger.Info("Answer found.", zap.Int("round", round), zap.String("answer", outcome.Answer))
			return result, nil
		}
		tableText = outcome.TableText

		if err := sleep(ctx, r.agent.SettleTime); err != nil {
			return result, err
		}
	}

	logger.Warn("Round budget exhausted without an answer.", zap.Int("rounds", result.Rounds))
	return result, nil
}

// capture shows the hint labels, takes a screenshot and stores it.
func (r *Runner) capture(ctx context.Context) (Observation, error) {
	if r.agent.HintKey != "" {
		if err := r.page.PressKey(ctx, r.agent.HintKey); err != nil {
			return Observation{}, fmt.Errorf("failed to show hint labels: %w", err)
		}
		if err := sleep(ctx, r.agent.HintWait); err != nil {
			return Observation{}, err
		}
	}

	data, err := r.page.Capture(ctx, r.shots.FullPage, r.shots.Quality)
	if err != nil {
		return Observation{}, err
	}
	raw, err := r.store.Save(data)
	if err != nil {
		return Observation{}, err
	}
	obs := Observation{ImagePath: raw, RawPath: raw}
	if r.shots.Compress {
		if obs.ImagePath, err = r.store.Compressed(raw, r.shots.MaxWidth, r.shots.MaxHeight, r.shots.Quality); err != nil {
			return Observation{}, err
		}
	}
	return obs, nil
}

func (r *Runner) observe(ctx context.Context, imagePath string) (string, error) {
	prompt := ObserverPrompt()
	text, err := r.llm.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: prompt,
		ImagePath:  imagePath,
		Role:       schemas.RoleObserver,
	})
	if err != nil {
		return "", fmt.Errorf("observer failed: %w", err)
	}
	r.transcript.Record("OBSERVER", prompt, text)
	return text, nil
}

// decide asks the actor for the next action in the configured mode.
func (r *Runner) decide(ctx context.Context, task, description, imagePath string) (action.Action, error) {
	if r.agent.Mode == config.ModeToolCall {
		return r.decideToolCall(ctx, task, description, imagePath)
	}

	prompt := ActorPrompt(description, task, r.catalog)
	text, err := r.llm.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: prompt,
		ImagePath:  imagePath,
		Role:       schemas.RoleActor,
	})
	if err != nil {
		return action.Action{}, fmt.Errorf("actor failed: %w", err)
	}
	r.transcript.Record("ACTOR", prompt, text)
	return r.parser.Parse(text)
}

func (r *Runner) decideToolCall(ctx context.Context, task, description, imagePath string) (action.Action, error) {
	tc := r.llm.(schemas.ToolCallingClient)
	prompt := ToolCallUserPrompt(description)
	call, err := tc.GenerateToolCall(ctx, schemas.GenerationRequest{
		SystemPrompt: ToolCallSystemPrompt(task),
		UserPrompt:   prompt,
		ImagePath:    imagePath,
		Role:         schemas.RoleActor,
	}, r.catalog.Specs())
	if err != nil {
		return action.Action{}, fmt.Errorf("actor failed: %w", err)
	}
	r.transcript.Record("ACTOR", prompt, formatToolCall(call))
	return action.DecodeToolCall(call, r.catalog)
}

func formatToolCall(call *schemas.ToolCall) string {
	if call == nil {
		return ""
	}
	if call.Name == "" {
		return call.Text
	}
	s := fmt.Sprintf("%s(%s)", call.Name, call.Arguments)
	if call.Text != "" {
		s = call.Text + "\n" + s
	}
	return s
}
