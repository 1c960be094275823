package vectordb

import (
	"fmt"
	"strings"
)

// snippetLen bounds the page text shown per result.
const snippetLen = 400

// FormatResults renders search results for one subject as human-readable
// text. Pages are shown with their one-based display number.
func FormatResults(subject string, results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d page(s) in %s:\n\n", len(results), subject))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d: page %d (distance: %.4f) ---\n", i+1, r.Position+1, r.Distance))

		content := strings.TrimSpace(r.Content)
		if len(content) > snippetLen {
			content = content[:snippetLen] + "..."
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
