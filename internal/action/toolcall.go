package action

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"

	"github.com/xkilldash9x/courtpilot/api/schemas"
	"github.com/xkilldash9x/courtpilot/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// answerTag wraps final answers given as plain text in tool-call mode.
const answerTag = "ANSWER"

// DecodeToolCall validates a structured tool invocation against the catalog and
// converts it into an Action. A text-only reply counts as an answer when it
// carries an <ANSWER>...</ANSWER> block.
func DecodeToolCall(call *schemas.ToolCall, catalog *Catalog) (Action, error) {
	if call == nil {
		return Action{}, ErrNoAction
	}
	thought := strings.TrimSpace(call.Text)

	if call.Name == "" {
		answer, err := llmutil.ExtractTagged(call.Text, answerTag)
		if err != nil {
			return Action{}, fmt.Errorf("%w: model replied with text only", ErrNoAction)
		}
		return Action{Kind: KindAnswer, Payload: answer}, nil
	}

	tool, ok := catalog.Lookup(call.Name)
	if !ok {
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return Action{}, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, tool.Name, err)
	}
	values, err := validateArguments(tool, args)
	if err != nil {
		return Action{}, err
	}

	act := Action{Kind: tool.Name, Thought: thought}
	switch tool.Name {
	case KindClick:
		act.Payload = values["letters"]
		act.Target = values["target"]
		if act.Payload == "" && act.Target == "" {
			return Action{}, fmt.Errorf("%w: CLICK needs letters or a target description", ErrInvalidArguments)
		}
	case KindInput:
		act.Payload = values["text"]
		act.Focus = values["letters"]
	default:
		act.Payload = values[tool.Args[0].Name]
	}
	return act, nil
}

// decodeArguments reads the JSON argument object. Malformed JSON is scraped out
// of markdown or repaired once before giving up.
func decodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	err := json.Unmarshal([]byte(raw), &args)
	if err == nil {
		return args, nil
	}

	if scraped, scrapeErr := llmutil.ParseJSONResponse[map[string]any](raw); scrapeErr == nil {
		return *scraped, nil
	}

	fixed, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return nil, errors.Join(err, repairErr)
	}
	if err := json.Unmarshal([]byte(fixed), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// validateArguments checks required presence, string type and enum membership.
func validateArguments(tool Tool, args map[string]any) (map[string]string, error) {
	for name := range args {
		if _, ok := tool.arg(name); !ok {
			return nil, fmt.Errorf("%w: %s has no argument %q", ErrInvalidArguments, tool.Name, name)
		}
	}

	values := make(map[string]string, len(tool.Args))
	for _, a := range tool.Args {
		v, present := args[a.Name]
		if !present || v == nil {
			if !a.Optional {
				return nil, fmt.Errorf("%w: %s requires %q", ErrInvalidArguments, tool.Name, a.Name)
			}
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s must be a %s", ErrInvalidArguments, tool.Name, a.Name, a.Type)
		}
		if len(a.Enum) > 0 && !containsFold(a.Enum, s) {
			return nil, fmt.Errorf("%w: %s.%s must be one of %v, got %q", ErrInvalidArguments, tool.Name, a.Name, a.Enum, s)
		}
		values[a.Name] = s
	}
	return values, nil
}

func containsFold(options []string, s string) bool {
	for _, o := range options {
		if strings.EqualFold(o, strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}
