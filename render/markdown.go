package render

import (
	"context"
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const markdownExtensions = parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock

// MarkdownToHTML converts Markdown to an HTML fragment. A parser is not
// safe for reuse, so each call builds its own.
func MarkdownToHTML(src []byte) []byte {
	p := parser.NewWithExtensions(markdownExtensions)
	doc := p.Parse(markdown.NormalizeNewlines(src))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(doc, renderer)
}

// Markdown renders Markdown sources to HTML fragments.
var Markdown = RenderFunc(func(_ context.Context, src []byte, _ string) ([]byte, error) {
	return MarkdownToHTML(src), nil
})

// HTMLToMarkdown converts HTML sources to Markdown.
var HTMLToMarkdown = RenderFunc(func(_ context.Context, src []byte, filename string) ([]byte, error) {
	md, err := htmltomarkdown.ConvertString(string(src))
	if err != nil {
		return nil, fmt.Errorf("converting %s to markdown: %w", filename, err)
	}
	return []byte(md), nil
})
