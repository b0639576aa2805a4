// Package action defines the actions an actor model can request, the tool
// catalog rendered into prompts, and the two ways of reading a decision out of
// a model reply: regex scraping of free text and schema-checked tool calls.
package action

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoAction is returned when a reply contains no recognizable action.
	ErrNoAction = errors.New("no action found in response")
	// ErrAmbiguous is returned when a reply contains the same action kind more than once.
	ErrAmbiguous = errors.New("ambiguous response")
	// ErrUnknownTool is returned for tool calls naming a tool outside the catalog.
	ErrUnknownTool = errors.New("unknown tool name")
	// ErrInvalidArguments is returned when tool arguments fail schema validation.
	ErrInvalidArguments = errors.New("invalid tool arguments")
	// ErrUnknownKind is returned when no handler exists for an action kind.
	ErrUnknownKind = errors.New("unknown action kind")
)

// Kind is the tag of an Action.
type Kind string

const (
	// KindAnswer ends the run and surfaces the payload as the answer.
	KindAnswer Kind = "ANSWER"
	// KindClick presses the hint letters shown over an element.
	KindClick Kind = "CLICK"
	// KindInput types the payload into the focused field.
	KindInput Kind = "INPUT"
	// KindScroll scrolls the page "up" or "down".
	KindScroll Kind = "SCROLL"
	// KindAnalyzeTable and KindParseTableData are alternative names for the
	// table extraction action.
	KindAnalyzeTable   Kind = "ANALYZE_TABLE"
	KindParseTableData Kind = "PARSE_TABLE_DATA"
)

// IsTable reports whether k is one of the table extraction kinds.
func (k Kind) IsTable() bool {
	return k == KindAnalyzeTable || k == KindParseTableData
}

// Action is one decision of the actor.
type Action struct {
	Kind    Kind   `json:"kind"`
	Payload string `json:"payload"`
	// Target describes an element without hint letters; only set on CLICK
	// actions produced by tool calls.
	Target string `json:"target,omitempty"`
	// Focus holds hint letters to press before typing an INPUT payload.
	Focus   string `json:"focus,omitempty"`
	Thought string `json:"thought,omitempty"`
}

// String renders the action in the grammar the text parser reads.
func (a Action) String() string {
	if a.Payload == "" && a.Target != "" {
		return fmt.Sprintf("%s(target=%q)", a.Kind, a.Target)
	}
	return fmt.Sprintf("%s(%q)", a.Kind, a.Payload)
}

// ScrollSign returns +1 for "down" and -1 for "up".
func (a Action) ScrollSign() (int, error) {
	switch strings.ToLower(strings.TrimSpace(a.Payload)) {
	case "down":
		return 1, nil
	case "up":
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: scroll direction must be up or down, got %q", ErrInvalidArguments, a.Payload)
	}
}
