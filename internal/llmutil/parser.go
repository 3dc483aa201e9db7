// File: internal/llmutil/parser.go
package llmutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Regex definitions use \x60 (hex representation) for backticks because Go
	// raw strings cannot contain backticks.

	// jsonObjectRegex extracts a JSON object if the response is wrapped in markdown.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	// jsonArrayRegex extracts a JSON array if the response is wrapped in markdown.
	jsonArrayRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// ExtractJSON pulls the JSON payload out of an LLM response, tolerating
// markdown code fences and surrounding conversational text. It returns an
// error when nothing in the response parses as JSON.
func ExtractJSON(response string) (json.RawMessage, error) {
	response = strings.TrimSpace(response)
	candidate := response

	isObject := strings.Contains(response, "{")
	isArray := strings.Contains(response, "[")

	// 1. Markdown wrapping (most common case).
	if strings.HasPrefix(response, "```") {
		var matches []string
		if isObject {
			matches = jsonObjectRegex.FindStringSubmatch(response)
		}
		if len(matches) <= 1 && isArray {
			matches = jsonArrayRegex.FindStringSubmatch(response)
		}
		if len(matches) > 1 {
			candidate = matches[1]
		}
	} else if (isObject || isArray) && !strings.HasPrefix(response, "{") && !strings.HasPrefix(response, "[") {
		// 2. Structure embedded in conversational text.
		if idx := boundaries(response, "{", "}"); idx != nil {
			candidate = response[idx[0]:idx[1]]
		} else if idx := boundaries(response, "[", "]"); idx != nil {
			candidate = response[idx[0]:idx[1]]
		}
	}

	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("no valid JSON found in response (truncated): %s", truncate(candidate, 300))
	}
	return json.RawMessage(candidate), nil
}

func boundaries(s, open, close string) []int {
	first := strings.Index(s, open)
	last := strings.LastIndex(s, close)
	if first == -1 || last == -1 || last <= first {
		return nil
	}
	return []int{first, last + 1}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
