// internal/llmutil/parser.go
package llmutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoMatch is returned when the requested structure is absent from a model reply.
var ErrNoMatch = errors.New("no match in model response")

var (
	// Backticks are written as \x60 because Go raw strings cannot contain them.

	// jsonObjectRegex extracts a JSON object if the response is wrapped in markdown.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	// jsonArrayRegex extracts a JSON array if the response is wrapped in markdown.
	jsonArrayRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// ParseJSONResponse parses a model reply into T. It tolerates markdown fences and
// conversational text around a single JSON object or array.
func ParseJSONResponse[T any](response string) (*T, error) {
	candidate := extractJSON(strings.TrimSpace(response))

	var result T
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, Truncate(candidate, 500))
	}
	return &result, nil
}

func extractJSON(response string) string {
	isObject := strings.Contains(response, "{")
	isArray := strings.Contains(response, "[")

	if strings.HasPrefix(response, "```") {
		var matches []string
		if isObject {
			matches = jsonObjectRegex.FindStringSubmatch(response)
		}
		if len(matches) <= 1 && isArray {
			matches = jsonArrayRegex.FindStringSubmatch(response)
		}
		if len(matches) > 1 {
			return matches[1]
		}
		return response
	}

	if strings.HasPrefix(response, "{") || strings.HasPrefix(response, "[") {
		return response
	}

	if isObject {
		if fb, lb := strings.Index(response, "{"), strings.LastIndex(response, "}"); fb != -1 && lb > fb {
			return response[fb : lb+1]
		}
	}
	if isArray {
		if fb, lb := strings.Index(response, "["), strings.LastIndex(response, "]"); fb != -1 && lb > fb {
			return response[fb : lb+1]
		}
	}
	return response
}

// ExtractTagged returns the trimmed content of the first <tag>...</tag> block.
func ExtractTagged(text, tag string) (string, error) {
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(tag) + `>([\s\S]*?)</` + regexp.QuoteMeta(tag) + `>`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("%w: <%s> block", ErrNoMatch, tag)
	}
	return strings.TrimSpace(m[1]), nil
}

// ExtractLabeled returns the rest of the line after the last "LABEL:" marker,
// e.g. ExtractLabeled("... DESCRIPTION: the login button", "DESCRIPTION").
func ExtractLabeled(text, label string) (string, error) {
	re := regexp.MustCompile(regexp.QuoteMeta(label) + `:[ \t]*(.*)`)
	all := re.FindAllStringSubmatch(text, -1)
	if len(all) == 0 {
		return "", fmt.Errorf("%w: %s label", ErrNoMatch, label)
	}
	return strings.TrimSpace(all[len(all)-1][1]), nil
}

// ExtractLabeledInt reads an integer after the last "LABEL:" marker ("RESULT: 12").
func ExtractLabeledInt(text, label string) (int, error) {
	re := regexp.MustCompile(regexp.QuoteMeta(label) + `:\s*(-?\d+)`)
	all := re.FindAllStringSubmatch(text, -1)
	if len(all) == 0 {
		return 0, fmt.Errorf("%w: %s number", ErrNoMatch, label)
	}
	n, err := strconv.Atoi(all[len(all)-1][1])
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", label, err)
	}
	return n, nil
}

// Truncate shortens s to at most maxLen bytes without splitting a rune, adding "..." when cut.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
