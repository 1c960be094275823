package rag

import (
	"encoding/json"
	"strings"
)

// extractJSON returns the outermost JSON object or array in raw, skipping
// any prose or code fences the model wrapped around it.
func extractJSON(raw string) (string, bool) {
	_, raw = SplitReasoning(raw)
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(raw, pair[0])
		end := strings.LastIndex(raw, pair[1])
		if start >= 0 && end > start {
			return raw[start : end+1], true
		}
	}
	return "", false
}

// parseStringList decodes either {"<key>": [...]} or a bare JSON array of
// strings. ok is false when raw holds neither.
func parseStringList(raw, key string) (items []string, ok bool) {
	body, found := extractJSON(raw)
	if !found {
		return nil, false
	}
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, false
		}
		return items, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, false
	}
	field, exists := obj[key]
	if !exists {
		return nil, false
	}
	if err := json.Unmarshal(field, &items); err != nil {
		return nil, false
	}
	return items, true
}

// cleanItem strips list markers, numbering and quotes from one line of a
// plain-text model reply.
func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•· \t")
	// "1." or "2)" numbering
	if i := strings.IndexAny(s, ".)"); i > 0 && i <= 3 && isDigits(s[:i]) && (i+1 == len(s) || s[i+1] == ' ') {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	return strings.TrimSpace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func stripFences(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
