package action

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	answerPattern  = regexp.MustCompile(`ANSWER\("([^"]*)"\)`)
	scrollPattern  = regexp.MustCompile(`SCROLL\("([A-Za-z0-9]+)"\)`)
	clickPattern   = regexp.MustCompile(`CLICK\("([A-Za-z]+)"\)`)
	inputPattern   = regexp.MustCompile(`INPUT\("([A-Za-z0-9_]+)"\)`)
	thoughtPattern = regexp.MustCompile(`(?m)^\s*Thought:\s*(.+)$`)
)

type pattern struct {
	kind Kind
	re   *regexp.Regexp
}

// Parser extracts a single action from an actor's free-text reply.
type Parser struct {
	// patterns are kept in precedence order.
	patterns []pattern
}

// NewParser returns a parser that recognizes the given table extraction kind
// next to ANSWER, SCROLL, CLICK and INPUT.
func NewParser(table Kind) *Parser {
	tablePattern := regexp.MustCompile(regexp.QuoteMeta(string(table)) + `\("([^"]*)"\)`)
	return &Parser{
		patterns: []pattern{
			{KindAnswer, answerPattern},
			{KindScroll, scrollPattern},
			{KindClick, clickPattern},
			{KindInput, inputPattern},
			{table, tablePattern},
		},
	}
}

// Parse returns the one action contained in text. A kind matched more than
// once is ErrAmbiguous; no match at all is ErrNoAction. When several kinds
// match once each, the earliest kind in precedence order wins.
func (p *Parser) Parse(text string) (Action, error) {
	found := make([][]string, len(p.patterns))
	for i, pat := range p.patterns {
		matches := pat.re.FindAllStringSubmatch(text, -1)
		if len(matches) > 1 {
			return Action{}, fmt.Errorf("found multiple %s actions in response: %w", pat.kind, ErrAmbiguous)
		}
		if len(matches) == 1 {
			found[i] = matches[0]
		}
	}

	for i, pat := range p.patterns {
		if found[i] == nil {
			continue
		}
		return Action{
			Kind:    pat.kind,
			Payload: found[i][1],
			Thought: thought(text),
		}, nil
	}
	return Action{}, ErrNoAction
}

func thought(text string) string {
	m := thoughtPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
