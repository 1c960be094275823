package rag

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/pages"
)

func buildClassifyPrompt(query string, subjects []config.Subject) string {
	var b strings.Builder
	b.WriteString("You sort student questions into the textbook subjects that can answer them.\n\n")
	b.WriteString("Subjects:\n")
	ids := make([]string, len(subjects))
	for i, s := range subjects {
		ids[i] = s.ID
		fmt.Fprintf(&b, "- %s: %s\n", s.ID, s.Description)
	}
	fmt.Fprintf(&b, "\nQuestion:\n%s\n\n", query)
	fmt.Fprintf(&b, "Pick every subject relevant to the question. Only use these identifiers: %s.\n", strings.Join(ids, ", "))
	b.WriteString(`Respond with JSON of the form {"subjects": ["ID", ...]}. Use an empty list if none apply.`)
	return b.String()
}

func buildExpandPrompt(query string, count int) string {
	var b strings.Builder
	b.WriteString("You rewrite questions so a search over textbook pages finds more of the relevant material.\n\n")
	fmt.Fprintf(&b, "Question:\n%s\n\n", query)
	fmt.Fprintf(&b, "Write %d distinct rephrasings of the question. Keep the intent unchanged. ", count)
	b.WriteString("Vary the wording and angle, and prefer the vocabulary a textbook on the topic would use.\n")
	b.WriteString(`Respond with JSON of the form {"queries": ["...", ...]}.`)
	return b.String()
}

// pageText is one retrieved page handed to the synthesis prompt.
type pageText struct {
	Position int
	Text     string
}

func buildSynthesisPrompt(query, subject string, texts []pageText) string {
	var b strings.Builder
	b.WriteString("You answer student questions using textbook pages and your own knowledge.\n")
	b.WriteString("Each page below is labelled with its page number (1-based PDF page).\n\n")
	fmt.Fprintf(&b, "### Question\n%s\n\n", query)
	fmt.Fprintf(&b, "### Pages from %s\n", subject)
	if len(texts) == 0 {
		b.WriteString("(no pages were retrieved)\n")
	}
	for _, p := range texts {
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", pages.DisplayNumber(p.Position), strings.TrimSpace(p.Text))
	}
	b.WriteString("\nWrite a clear, structured and accurate answer in markdown. Cite page numbers where the pages support a point.")
	return b.String()
}

func buildSummaryPrompt(subject string, texts []pageText) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Read the following pages from the %s textbook:\n", subject)
	for _, p := range texts {
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", pages.DisplayNumber(p.Position), strings.TrimSpace(p.Text))
	}
	b.WriteString("\nSummarize them for revision. Keep definitions, key concepts, process steps, examples and any data the pages give. Do not drop critical detail.")
	return b.String()
}
