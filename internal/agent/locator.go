// internal/agent/locator.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/llmutil"
	"github.com/xkilldash9x/courtpilot/internal/observability"
	"github.com/xkilldash9x/courtpilot/internal/screenshot"
)

// ErrNotLocated is returned when the model cannot place the target on the grid.
var ErrNotLocated = errors.New("target not located")

// gridDir holds the overlaid copies of captures next to the originals.
const gridDir = "grid"

// Locator clicks elements that have no hint label by letting a model pick a
// numbered grid cell.
type Locator struct {
	llm        schemas.LLMClient
	page       Page
	grid       screenshot.Grid
	transcript *observability.Transcript
	logger     *zap.Logger
}

// NewLocator creates a Locator over page.
func NewLocator(llm schemas.LLMClient, page Page, grid screenshot.Grid, transcript *observability.Transcript, logger *zap.Logger) *Locator {
	return &Locator{
		llm:        llm,
		page:       page,
		grid:       grid,
		transcript: transcript,
		logger:     logger.Named("locator"),
	}
}

// Locate returns the CSS pixel position of target in the capture at imagePath.
func (l *Locator) Locate(ctx context.Context, target, imagePath string) (float64, float64, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read capture: %w", err)
	}
	img, err := screenshot.Decode(data)
	if err != nil {
		return 0, 0, err
	}
	overlaid, err := screenshot.EncodeJPEG(screenshot.DrawGrid(img, l.grid), 90)
	if err != nil {
		return 0, 0, err
	}

	dir := filepath.Join(filepath.Dir(imagePath), gridDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("failed to create grid directory: %w", err)
	}
	gridPath := filepath.Join(dir, filepath.Base(imagePath))
	if err := os.WriteFile(gridPath, overlaid, 0o644); err != nil {
		return 0, 0, fmt.Errorf("failed to write grid image: %w", err)
	}

	prompt := LocatorPrompt(target)
	resp, err := l.llm.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: prompt,
		ImagePath:  gridPath,
		Role:       schemas.RoleLocator,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("locator model failed: %w", err)
	}
	l.transcript.Record("LOCATOR", prompt, resp)

	cell, err := llmutil.ExtractLabeledInt(resp, "RESULT")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrNotLocated, target, err)
	}
	if cell == 0 {
		return 0, 0, fmt.Errorf("%w: model was unsure about %q", ErrNotLocated, target)
	}

	b := img.Bounds()
	px, py, err := l.grid.CellCenter(cell, b.Dx(), b.Dy())
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotLocated, err)
	}

	// Captures may be taken at a device scale factor; both axes share it.
	vw, _ := l.page.ViewportSize()
	scale := 1.0
	if b.Dx() > 0 && vw > 0 {
		scale = float64(vw) / float64(b.Dx())
	}
	x, y := px*scale, py*scale
	l.logger.Debug("Located target.", zap.String("target", target), zap.Int("cell", cell), zap.Float64("x", x), zap.Float64("y", y))
	return x, y, nil
}

// Click locates target and clicks its center.
func (l *Locator) Click(ctx context.Context, target, imagePath string) error {
	x, y, err := l.Locate(ctx, target, imagePath)
	if err != nil {
		return err
	}
	return l.page.ClickAt(ctx, x, y)
}
