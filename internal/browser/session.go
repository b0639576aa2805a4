// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultActionTimeout     = 10 * time.Second
	defaultNavigationTimeout = 60 * time.Second
	shutdownTimeout          = 10 * time.Second
)

// namedKeys maps key names used by the agent to chromedp key sequences.
var namedKeys = map[string]string{
	"Escape":    kb.Escape,
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Backspace": kb.Backspace,
	"PageDown":  kb.PageDown,
	"PageUp":    kb.PageUp,
}

// Session is a single Chrome tab driven over the DevTools protocol, launched
// with a persistent profile so the hint extension stays installed.
type Session struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	closeOnce sync.Once
}

// NewSession launches the browser and opens a tab sized to the configured viewport.
func NewSession(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	log := logger.Named("browser")

	if cfg.UserDataDir != "" {
		if err := os.MkdirAll(cfg.UserDataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create user data dir: %w", err)
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)
	sugar := log.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	s := &Session{
		cfg:         cfg,
		logger:      log,
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      tabCancel,
	}

	w, h := cfg.ViewportSize()
	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(w), int64(h))); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("Browser session started.",
		zap.Bool("headless", cfg.Headless),
		zap.String("user_data_dir", cfg.UserDataDir),
		zap.String("extension", cfg.ExtensionPath),
		zap.Int("viewport_width", w),
		zap.Int("viewport_height", h),
	)
	return s, nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, op string, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s aborted: %w", op, err)
	}
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s aborted: %w", op, ctx.Err())
		}
		if opCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %v: %w", op, timeout, opCtx.Err())
		}
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return nil
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.ActionTimeout > 0 {
		return s.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

// Navigate loads url in the tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	s.logger.Info("Navigating.", zap.String("url", url))
	return s.run(ctx, timeout, "navigate", chromedp.Navigate(url))
}

// PressKey sends a named key (Escape, Enter, ...) or the literal characters of key.
func (s *Session) PressKey(ctx context.Context, key string) error {
	seq, ok := namedKeys[key]
	if !ok {
		seq = key
	}
	s.logger.Debug("Pressing key.", zap.String("key", key))
	return s.run(ctx, s.actionTimeout(), "press key", chromedp.KeyEvent(seq))
}

// Type sends text as keystrokes to the focused element.
func (s *Session) Type(ctx context.Context, text string) error {
	s.logger.Debug("Typing text.", zap.Int("length", len(text)))
	return s.run(ctx, s.actionTimeout(), "type", chromedp.KeyEvent(text))
}

// ScrollBy scrolls the window vertically by dy CSS pixels.
func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	s.logger.Debug("Scrolling.", zap.Int("dy", dy))
	return s.Evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %d)", dy), nil)
}

// ClickAt presses and releases the left mouse button at viewport coordinates.
func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	s.logger.Debug("Clicking at coordinates.", zap.Float64("x", x), zap.Float64("y", y))
	return s.run(ctx, s.actionTimeout(), "click",
		input.DispatchMouseEvent(input.MouseMoved, x, y),
		input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).WithButtons(1).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).WithClickCount(1),
	)
}

// Capture returns a JPEG screenshot of the viewport, or of the whole page
// when fullPage is set.
func (s *Session) Capture(ctx context.Context, fullPage bool, quality int) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.actionTimeout(), "capture screenshot", chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(quality)).
			WithFromSurface(true)
		if fullPage {
			// Without a clip Chrome still captures a viewport-sized area.
			_, _, _, _, _, cssContentSize, err := page.GetLayoutMetrics().Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to read layout metrics: %w", err)
			}
			params = params.
				WithCaptureBeyondViewport(true).
				WithClip(&page.Viewport{
					X:      0,
					Y:      0,
					Width:  cssContentSize.Width,
					Height: cssContentSize.Height,
					Scale:  1,
				})
		}
		var err error
		buf, err = params.Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Evaluate runs script in the page and decodes its result into out, which may be nil.
func (s *Session) Evaluate(ctx context.Context, script string, out interface{}) error {
	opts := func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true)
	}
	if out == nil {
		// A nil result lets scripts evaluate to undefined.
		return s.run(ctx, s.actionTimeout(), "evaluate", chromedp.Evaluate(script, nil, opts))
	}

	var raw []byte
	if err := s.run(ctx, s.actionTimeout(), "evaluate", chromedp.Evaluate(script, &raw, opts)); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

// ScrollInfo measures the remaining scrollable height of the page.
func (s *Session) ScrollInfo(ctx context.Context) (ScrollInfo, error) {
	var info ScrollInfo
	if err := s.Evaluate(ctx, scrollInfoScript, &info); err != nil {
		return ScrollInfo{}, fmt.Errorf("failed to read scroll info: %w", err)
	}
	if info.ViewportHeight <= 0 {
		_, info.ViewportHeight = s.cfg.ViewportSize()
	}
	info.computeViewports()
	return info, nil
}

// ViewportSize returns the emulated viewport in CSS pixels.
func (s *Session) ViewportSize() (int, int) {
	return s.cfg.ViewportSize()
}

// Close shuts the tab and the browser process down. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() {
			done <- chromedp.Cancel(s.ctx)
		}()
		select {
		case err = <-done:
		case <-time.After(shutdownTimeout):
			err = fmt.Errorf("browser shutdown timed out after %v", shutdownTimeout)
		}
		s.cancel()
		s.allocCancel()
		if err != nil && err != context.Canceled {
			s.logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		} else {
			err = nil
			s.logger.Info("Browser session closed.")
		}
	})
	return err
}
