// Package agent runs the observe/act loop: capture the page, have one model
// describe it, have another pick an action, and carry that action out.
package agent

import (
	"context"

	"github.com/xkilldash9x/courtpilot/internal/browser"
)

// Page is the slice of a browser session the loop drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	PressKey(ctx context.Context, key string) error
	Type(ctx context.Context, text string) error
	ScrollBy(ctx context.Context, dy int) error
	ClickAt(ctx context.Context, x, y float64) error
	Capture(ctx context.Context, fullPage bool, quality int) ([]byte, error)
	ScrollInfo(ctx context.Context) (browser.ScrollInfo, error)
	// ViewportSize returns the CSS pixel size of the visible area.
	ViewportSize() (int, int)
}

var _ Page = (*browser.Session)(nil)

// Observation is what a round knows about the page when it dispatches.
type Observation struct {
	// ImagePath is the capture sent to models (compressed when enabled).
	ImagePath string
	// RawPath is the full resolution capture.
	RawPath string
	Task    string
}

// Outcome reports the effect of a dispatched action on the loop.
type Outcome struct {
	Done   bool
	Answer string
	// TableText replaces the observer description in the next round.
	TableText string
}
