package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// ruleWidth is the length of the dashed separator printed after each exchange.
const ruleWidth = 80

// Transcript records model exchanges as human readable blocks on a console
// writer and as structured entries in the log.
type Transcript struct {
	logger *zap.Logger
	out    io.Writer
	header func(a ...interface{}) string
	mu     sync.Mutex
}

// NewTranscript creates a transcript. A nil out disables the console echo.
func NewTranscript(logger *zap.Logger, out io.Writer) *Transcript {
	return &Transcript{
		logger: logger.Named("transcript"),
		out:    out,
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
	}
}

// Record writes one prompt/response exchange for the given role label.
func (t *Transcript) Record(role, prompt, response string) {
	if t == nil {
		return
	}
	t.logger.Info("model exchange",
		zap.String("role", role),
		zap.Int("prompt_chars", len(prompt)),
		zap.String("response", response),
	)
	if t.out == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\n%s\n%s", t.header(fmt.Sprintf("====== %s ======", role)), exchangeBody(prompt, response))
}

// FormatExchange renders the uncolored block used in log files.
func FormatExchange(role, prompt, response string) string {
	return fmt.Sprintf("\n====== %s ======\n%s", role, exchangeBody(prompt, response))
}

func exchangeBody(prompt, response string) string {
	var b strings.Builder
	b.WriteString(" == PROMPT ==\n")
	b.WriteString(prompt)
	b.WriteString("\n== RESPONSE ==\n")
	b.WriteString(response)
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteString("\n")
	return b.String()
}
