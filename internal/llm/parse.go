package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSONReply decodes a JSON document out of a model reply. Models often
// wrap JSON in Markdown code fences; that wrapper is stripped once before
// decoding. If parsing still fails afterwards, the whole operation fails
// rather than returning partial or guessed data.
func ParseJSONReply(reply string, dest any) error {
	trimmed := strings.TrimSpace(reply)

	if err := json.Unmarshal([]byte(trimmed), dest); err == nil {
		return nil
	}

	stripped := stripCodeFences(trimmed)
	if err := json.Unmarshal([]byte(stripped), dest); err != nil {
		return fmt.Errorf("model reply is not valid JSON: %w", err)
	}

	return nil
}

// stripCodeFences removes a single surrounding ```...``` wrapper, with or
// without a language tag on the opening fence.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	body := strings.TrimPrefix(s, "```")
	// Drop the language tag line ("json", "JSON", ...) if present
	if idx := strings.Index(body, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(body[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			body = body[idx+1:]
		}
	}

	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
