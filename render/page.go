package render

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"path"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Page renders Markdown pages with GitHub-flavored extensions, YAML front
// matter and highlighted code blocks. When the front matter sets "layout",
// the converted HTML is passed to that html/template, resolved relative to
// the page, as .content alongside .meta and .filename.
type Page struct {
	fsys    billy.Filesystem
	md      goldmark.Markdown
	funcs   map[string]any
	layouts *layoutCache
}

type pageOptions struct {
	style   string
	classes bool
	funcs   map[string]any
}

type PageOption func(*pageOptions)

// WithHighlightStyle selects the chroma style for code blocks.
func WithHighlightStyle(style string) PageOption {
	return func(o *pageOptions) {
		o.style = style
	}
}

// WithHighlightClasses emits CSS classes instead of inline styles.
func WithHighlightClasses() PageOption {
	return func(o *pageOptions) {
		o.classes = true
	}
}

// WithLayoutFuncs adds functions available to layout templates.
func WithLayoutFuncs(funcs map[string]any) PageOption {
	return func(o *pageOptions) {
		for name, fn := range funcs {
			o.funcs[name] = fn
		}
	}
}

func NewPage(fsys billy.Filesystem, opts ...PageOption) *Page {
	o := pageOptions{style: "github", funcs: DefaultFuncMap()}
	for _, opt := range opts {
		opt(&o)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithStyle(o.style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(o.classes)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	return &Page{fsys: fsys, md: md, funcs: o.funcs, layouts: newLayoutCache()}
}

func (p *Page) Render(_ context.Context, src []byte, filename string) ([]byte, error) {
	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := p.md.Convert(src, &buf, parser.WithContext(pctx)); err != nil {
		return nil, fmt.Errorf("failed to convert markdown %s: %w", filename, err)
	}

	frontMatter, err := meta.TryGet(pctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front matter in %s: %w", filename, err)
	}

	layout, _ := frontMatter["layout"].(string)
	if layout == "" {
		return buf.Bytes(), nil
	}

	layoutPath := path.Join(path.Dir(filename), layout)
	layoutSrc, err := util.ReadFile(p.fsys, layoutPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s for %s: %w", layoutPath, filename, err)
	}

	tmpl, err := p.layouts.get(layoutPath, layoutSrc, func() (*htmltemplate.Template, error) {
		return htmltemplate.New(layoutPath).Funcs(p.funcs).Parse(string(layoutSrc))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout %s: %w", layoutPath, err)
	}

	var out bytes.Buffer
	data := map[string]any{
		"content":  htmltemplate.HTML(buf.String()),
		"meta":     frontMatter,
		"filename": filename,
	}
	if err := tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("failed to execute layout %s for %s: %w", layoutPath, filename, err)
	}
	return out.Bytes(), nil
}
