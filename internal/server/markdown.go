package server

import (
	"bytes"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/askbook/internal/rag"
)

// Raw HTML in model output is dropped since the renderer runs without
// html.WithUnsafe.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// RenderMarkdown converts an answer to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderAnswers returns the HTML of every successful subject answer.
func renderAnswers(ans *rag.Answer) map[string]string {
	out := make(map[string]string, len(ans.Answers))
	for _, a := range ans.Answers {
		if a.Failed {
			continue
		}
		html, err := RenderMarkdown(a.Answer)
		if err != nil {
			continue
		}
		out[a.Subject] = html
	}
	return out
}
