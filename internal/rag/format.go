package rag

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/askbook/internal/pages"
)

// FormatText renders an answer as markdown for terminals and MCP clients.
// Page numbers are display numbers.
func FormatText(ans *Answer, withReasoning bool) string {
	var b strings.Builder
	if ans.Status == StatusNoSubject {
		b.WriteString("No relevant subject was found for this question.\n")
		writeWarnings(&b, ans.Warnings)
		return b.String()
	}

	for _, a := range ans.Answers {
		fmt.Fprintf(&b, "## %s\n\n", a.Subject)
		if a.Failed {
			fmt.Fprintf(&b, "_Failed: %s_\n\n", a.Error)
			continue
		}
		if withReasoning && a.Reasoning != "" {
			fmt.Fprintf(&b, "<details><summary>Reasoning</summary>\n\n%s\n\n</details>\n\n", a.Reasoning)
		}
		b.WriteString(strings.TrimSpace(a.Answer))
		b.WriteString("\n\n")
		if len(a.Pages) > 0 {
			fmt.Fprintf(&b, "Pages: %s\n", displayList(a.Pages))
		}
		for _, f := range ans.Figures[a.Subject] {
			fmt.Fprintf(&b, "- Figure (page %d): %s", pages.DisplayNumber(f.Position), f.File)
			if f.Caption != "" {
				fmt.Fprintf(&b, " - %s", f.Caption)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	writeWarnings(&b, ans.Warnings)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func displayList(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprint(pages.DisplayNumber(p))
	}
	return strings.Join(parts, ", ")
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\nWarnings:\n")
	for _, w := range warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
}
