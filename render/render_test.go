package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/mirrorgen/postprocess"
)

func TestCopy(t *testing.T) {
	src := []byte("unchanged")
	out, err := Copy.Render(context.Background(), src, "src/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "unchanged", string(out))

	out[0] = 'X'
	assert.Equal(t, "unchanged", string(src), "Copy must not alias its input")
}

func TestSimple(t *testing.T) {
	r := Simple(func(src []byte, filename string) ([]byte, error) {
		return []byte(filename + ":" + string(src)), nil
	})
	out, err := r.Render(context.Background(), []byte("body"), "src/x.pug")
	require.NoError(t, err)
	assert.Equal(t, "src/x.pug:body", string(out))
}

func TestTemplate_PageData(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "src/blog/post.yaml", []byte("title: Hello\ntags: [go, web]\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "src/about.json", []byte(`{"title": "About"}`), 0o644))

	tmpl := NewTemplate(fs)

	tests := []struct {
		name     string
		filename string
		src      string
		want     string
	}{
		{"yaml data", "src/blog/post.tmpl", `{{.title}} {{index .tags 1}}`, "Hello web"},
		{"json data", "src/about.tmpl", `{{.title | upper}}`, "ABOUT"},
		{"no data", "src/plain.tmpl", `{{default "Untitled" .title}} {{.filename}}`, "Untitled src/plain.tmpl"},
		{"path funcs", "src/blog/post.tmpl", `{{pathBase .filename}}`, "post.tmpl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tmpl.Render(context.Background(), []byte(tt.src), tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestTemplate_HTMLEscaping(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "src/page.yaml", []byte(`title: "<b>bold</b>"`), 0o644))

	src := []byte(`<h1>{{.title}}</h1>`)

	plain, err := NewTemplate(fs).Render(context.Background(), src, "src/page.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "<h1><b>bold</b></h1>", string(plain))

	escaped, err := NewTemplate(fs, WithHTMLEscaping()).Render(context.Background(), src, "src/page.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "<h1>&lt;b&gt;bold&lt;/b&gt;</h1>", string(escaped))
}

func TestTemplate_Errors(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "src/broken.yaml", []byte("title: [unclosed"), 0o644))
	tmpl := NewTemplate(fs, WithFuncs(map[string]any{"shout": strings.ToUpper}))

	_, err := tmpl.Render(context.Background(), []byte("{{.title"), "src/page.tmpl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template src/page.tmpl")

	_, err = tmpl.Render(context.Background(), []byte("{{.title}}"), "src/broken.tmpl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse page data src/broken.yaml")

	out, err := tmpl.Render(context.Background(), []byte(`{{shout "hi"}}`), "src/page.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "HI", string(out))
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown.Render(context.Background(), []byte("# Title\n\nSome *text* and a [link](https://example.com).\n"), "src/a.md")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<em>text</em>")
	assert.Contains(t, html, `target="_blank"`)
}

func TestHTMLToMarkdown(t *testing.T) {
	out, err := HTMLToMarkdown.Render(context.Background(), []byte("<h2>Section</h2><p>Some <strong>bold</strong> text</p>"), "src/a.html")
	require.NoError(t, err)

	md := string(out)
	assert.Contains(t, md, "## Section")
	assert.Contains(t, md, "**bold**")
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(memfs.New())

	names := make([]string, 0)
	for _, meta := range r.List() {
		names = append(names, meta.Name)
	}
	assert.Equal(t, []string{"copy", "html-template", "html2md", "markdown", "page", "template"}, names)

	got, ok := r.Get("markdown")
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = r.Get("pug")
	assert.False(t, ok)

	assert.Error(t, r.Register("copy", Copy, "duplicate"))
	assert.Error(t, r.Register("", Copy, "unnamed"))
	assert.Error(t, r.Register("nil", nil, "nil renderer"))
	require.NoError(t, r.Register("shout", Simple(func(src []byte, _ string) ([]byte, error) {
		return []byte(strings.ToUpper(string(src))), nil
	}), "upper-case"))
}

func TestWithPostProcess(t *testing.T) {
	var seen string
	chain := postprocess.NewChain(postprocess.ProcessorFunc(func(name string, content []byte) ([]byte, error) {
		seen = name
		return append(content, '!'), nil
	}))
	toOutput := func(name string) string {
		return strings.Replace(strings.TrimSuffix(name, ".md")+".html", "src/", "dist/", 1)
	}

	r := WithPostProcess(Copy, chain, toOutput)
	out, err := r.Render(context.Background(), []byte("hi"), "src/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hi!", string(out))
	assert.Equal(t, "dist/a.html", seen)
}

func TestWithPostProcess_Passthrough(t *testing.T) {
	for _, chain := range []*postprocess.Chain{nil, postprocess.NewChain()} {
		_, wrapped := WithPostProcess(Copy, chain, nil).(*postProcessed)
		assert.False(t, wrapped)
	}
}

func TestWithPostProcess_Errors(t *testing.T) {
	errRender := errors.New("render failed")
	failing := Simple(func([]byte, string) ([]byte, error) { return nil, errRender })
	errProcess := errors.New("process failed")
	chain := postprocess.NewChain(postprocess.ProcessorFunc(func(string, []byte) ([]byte, error) {
		return nil, errProcess
	}))

	_, err := WithPostProcess(failing, chain, nil).Render(context.Background(), nil, "src/a.md")
	assert.ErrorIs(t, err, errRender)

	_, err = WithPostProcess(Copy, chain, nil).Render(context.Background(), []byte("x"), "src/a.md")
	assert.ErrorIs(t, err, errProcess)
	assert.Contains(t, err.Error(), "post-processing src/a.md")
}
