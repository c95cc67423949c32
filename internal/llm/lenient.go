// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject pulls the outermost JSON object span out of model output
// that may be wrapped in code fences or surrounded by prose: fence lines
// are dropped, then the substring between the first '{' and the last '}'
// is returned. Returns "" when no object span exists.
func ExtractObject(text string) string {
	candidate := strings.TrimSpace(text)
	if candidate == "" {
		return ""
	}

	if strings.HasPrefix(candidate, "```") {
		var kept []string
		for _, line := range strings.Split(candidate, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			kept = append(kept, line)
		}
		candidate = strings.TrimSpace(strings.Join(kept, "\n"))
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return candidate[start : end+1]
}

// Coerce decodes model output into out using the lenient strategy. The
// caller falls back to a default record on error; Coerce itself never
// panics on malformed input.
func Coerce(text string, out any) error {
	candidate := ExtractObject(text)
	if candidate == "" {
		return fmt.Errorf("no JSON object found in model output")
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return fmt.Errorf("parsing model JSON: %w", err)
	}
	return nil
}
