// internal/agent/dispatcher.go
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/action"
	"github.com/xkilldash9x/courtpilot/internal/observability"
)

// DefaultScrollDelta is the scroll distance in CSS pixels.
const DefaultScrollDelta = 600

// Handler carries out one kind of action.
type Handler func(ctx context.Context, act action.Action, obs Observation) (Outcome, error)

// DispatcherOptions configures a Dispatcher. Zero values select the defaults.
type DispatcherOptions struct {
	ScrollDelta int
	// FocusWait is the pause between pressing an input's hint letters and typing.
	FocusWait  time.Duration
	Locator    *Locator
	Transcript *observability.Transcript
}

// Dispatcher maps actions to browser primitives and model calls.
type Dispatcher struct {
	logger     *zap.Logger
	page       Page
	llm        schemas.LLMClient
	locator    *Locator
	transcript *observability.Transcript
	delta      int
	focusWait  time.Duration
	handlers   map[action.Kind]Handler
}

// NewDispatcher creates a Dispatcher with handlers for every action kind.
func NewDispatcher(page Page, llm schemas.LLMClient, opts DispatcherOptions, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		logger:     logger.Named("dispatcher"),
		page:       page,
		llm:        llm,
		locator:    opts.Locator,
		transcript: opts.Transcript,
		delta:      opts.ScrollDelta,
		focusWait:  opts.FocusWait,
		handlers:   make(map[action.Kind]Handler),
	}
	if d.delta <= 0 {
		d.delta = DefaultScrollDelta
	}

	d.Register(d.answer, action.KindAnswer)
	d.Register(d.click, action.KindClick)
	d.Register(d.input, action.KindInput)
	d.Register(d.scroll, action.KindScroll)
	d.Register(d.table, action.KindAnalyzeTable, action.KindParseTableData)
	return d
}

// Register associates h with one or more kinds, replacing earlier handlers.
func (d *Dispatcher) Register(h Handler, kinds ...action.Kind) {
	for _, k := range kinds {
		d.handlers[k] = h
	}
}

// Dispatch runs the handler for act.Kind.
func (d *Dispatcher) Dispatch(ctx context.Context, act action.Action, obs Observation) (Outcome, error) {
	h, ok := d.handlers[act.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: no handler registered for %q", action.ErrUnknownKind, act.Kind)
	}
	d.logger.Debug("Dispatching action.", zap.String("action", act.String()))
	return h(ctx, act, obs)
}

func (d *Dispatcher) answer(_ context.Context, act action.Action, _ Observation) (Outcome, error) {
	return Outcome{Done: true, Answer: act.Payload}, nil
}

func (d *Dispatcher) click(ctx context.Context, act action.Action, obs Observation) (Outcome, error) {
	if act.Payload != "" {
		if err := d.page.PressKey(ctx, act.Payload); err != nil {
			return Outcome{}, fmt.Errorf("click %q: %w", act.Payload, err)
		}
		return Outcome{}, nil
	}
	if act.Target == "" {
		return Outcome{}, fmt.Errorf("%w: click needs letters or a target", action.ErrInvalidArguments)
	}
	if d.locator == nil {
		return Outcome{}, fmt.Errorf("%w: click by target requires the grid locator", action.ErrInvalidArguments)
	}
	path := obs.RawPath
	if path == "" {
		path = obs.ImagePath
	}
	if err := d.locator.Click(ctx, act.Target, path); err != nil {
		return Outcome{}, fmt.Errorf("click %q: %w", act.Target, err)
	}
	return Outcome{}, nil
}

func (d *Dispatcher) input(ctx context.Context, act action.Action, _ Observation) (Outcome, error) {
	if act.Focus != "" {
		if err := d.page.PressKey(ctx, act.Focus); err != nil {
			return Outcome{}, fmt.Errorf("focus %q: %w", act.Focus, err)
		}
		if err := sleep(ctx, d.focusWait); err != nil {
			return Outcome{}, err
		}
	}
	if err := d.page.Type(ctx, act.Payload); err != nil {
		return Outcome{}, fmt.Errorf("input: %w", err)
	}
	return Outcome{}, nil
}

func (d *Dispatcher) scroll(ctx context.Context, act action.Action, _ Observation) (Outcome, error) {
	sign, err := act.ScrollSign()
	if err != nil {
		return Outcome{}, err
	}
	// Escape hides the hint labels before the page moves.
	if err := d.page.PressKey(ctx, "Escape"); err != nil {
		return Outcome{}, fmt.Errorf("scroll: %w", err)
	}
	if err := d.page.ScrollBy(ctx, sign*d.delta); err != nil {
		return Outcome{}, fmt.Errorf("scroll: %w", err)
	}
	return Outcome{}, nil
}

func (d *Dispatcher) table(ctx context.Context, act action.Action, obs Observation) (Outcome, error) {
	prompt := TablePrompt(act.Payload)
	text, err := d.llm.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: prompt,
		ImagePath:  obs.ImagePath,
		Role:       schemas.RoleTable,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("table extraction failed: %w", err)
	}
	d.transcript.Record("TABLE", prompt, text)
	return Outcome{TableText: text}, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
