package llm

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseError reports that no usable JSON object could be pulled out of
// a model response. Callers treat it as a degraded result, never as a
// request failure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse model response: " + e.Reason
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls a JSON object out of free-form model text. It tries
// a fenced code block first, then the first balanced {...} span, and
// validates each candidate before accepting it.
func ExtractJSON(text string) ([]byte, error) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if gjson.Valid(m[1]) {
			return []byte(m[1]), nil
		}
	}

	if span := firstBalancedObject(text); span != "" {
		if gjson.Valid(span) {
			return []byte(span), nil
		}
		return nil, &ParseError{Reason: "candidate object span is not valid JSON"}
	}

	return nil, &ParseError{Reason: "no JSON object found in response"}
}

// firstBalancedObject returns the first {...} span whose braces balance,
// skipping braces inside string literals.
func firstBalancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
