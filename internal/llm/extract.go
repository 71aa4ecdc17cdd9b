package llm

import "strings"

// extractJSON attempts to extract JSON from a string that may contain
// markdown formatting.
func extractJSON(s string) string {
	// Try to find ```json ... ``` block
	if body, ok := fencedBlock(s, "```json"); ok {
		return body
	}

	// Try to find ``` ... ``` block (plain code block)
	if body, ok := fencedBlock(s, "```"); ok {
		return body
	}

	// Try to find raw JSON (starts with { or [)
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			depth := 0
			for j := i; j < len(s); j++ {
				switch s[j] {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
					if depth == 0 {
						return s[i : j+1]
					}
				}
			}
		}
	}

	return s
}

func fencedBlock(s, fence string) (string, bool) {
	idx := strings.Index(s, fence)
	if idx == -1 {
		return "", false
	}
	start := idx + len(fence)
	for start < len(s) && (s[start] == '\n' || s[start] == '\r') {
		start++
	}
	end := strings.Index(s[start:], "```")
	if end == -1 {
		return "", false
	}
	result := s[start : start+end]
	for len(result) > 0 && (result[len(result)-1] == '\n' || result[len(result)-1] == '\r') {
		result = result[:len(result)-1]
	}
	return result, true
}
