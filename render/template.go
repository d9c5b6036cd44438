package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// dataExtensions lists the sibling page-data files tried, in order.
var dataExtensions = []string{".json", ".yaml", ".yml"}

// Template renders sources as Go templates. Page data is read from a file
// next to the source with the same base name and a .json, .yaml or .yml
// extension; a missing data file yields empty data. The key "filename" is
// always set to the source path.
type Template struct {
	fsys     billy.Filesystem
	html     bool
	partials bool
	funcs    map[string]any
}

type TemplateOption func(*Template)

// WithHTMLEscaping switches to html/template, escaping data contextually.
func WithHTMLEscaping() TemplateOption {
	return func(t *Template) {
		t.html = true
	}
}

// WithPartials makes "_"-prefixed files next to a source, sharing its
// extension, available to it as named templates: "_nav.tmpl" is included
// with {{template "nav" .}}. The default exclusion patterns keep such files
// out of the output.
func WithPartials() TemplateOption {
	return func(t *Template) {
		t.partials = true
	}
}

// WithFuncs adds template functions on top of DefaultFuncMap.
func WithFuncs(funcs map[string]any) TemplateOption {
	return func(t *Template) {
		for name, fn := range funcs {
			t.funcs[name] = fn
		}
	}
}

func NewTemplate(fsys billy.Filesystem, opts ...TemplateOption) *Template {
	t := &Template{
		fsys:  fsys,
		funcs: DefaultFuncMap(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Template) Render(_ context.Context, src []byte, filename string) ([]byte, error) {
	data, err := t.PageData(filename)
	if err != nil {
		return nil, err
	}

	var parts []partial
	if t.partials {
		if parts, err = findPartials(t.fsys, filename); err != nil {
			return nil, err
		}
	}

	set, err := t.newSet(filename, string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", filename, err)
	}
	for _, p := range parts {
		if err := set.parse(p.name, p.content); err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", p.path, err)
		}
	}

	var buf bytes.Buffer
	if err := set.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", filename, err)
	}
	return buf.Bytes(), nil
}

// templateSet is the common ground of text/template and html/template: a
// root template that named templates can be added to.
type templateSet interface {
	parse(name, text string) error
	Execute(w io.Writer, data any) error
}

type textSet struct{ *template.Template }

func (s textSet) parse(name, text string) error {
	_, err := s.New(name).Parse(text)
	return err
}

type htmlSet struct{ *htmltemplate.Template }

func (s htmlSet) parse(name, text string) error {
	_, err := s.New(name).Parse(text)
	return err
}

func (t *Template) newSet(name, text string) (templateSet, error) {
	if t.html {
		tmpl, err := htmltemplate.New(name).Funcs(t.funcs).Parse(text)
		if err != nil {
			return nil, err
		}
		return htmlSet{tmpl}, nil
	}
	tmpl, err := template.New(name).Funcs(t.funcs).Parse(text)
	if err != nil {
		return nil, err
	}
	return textSet{tmpl}, nil
}

// PageData loads the data file that belongs to filename. JSON is decoded
// with the YAML decoder, which accepts it as a subset.
func (t *Template) PageData(filename string) (map[string]any, error) {
	data := make(map[string]any)
	base := strings.TrimSuffix(filename, path.Ext(filename))

	for _, ext := range dataExtensions {
		content, err := util.ReadFile(t.fsys, base+ext)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read page data %s: %w", base+ext, err)
		}
		if len(bytes.TrimSpace(content)) > 0 {
			if err := yaml.Unmarshal(content, &data); err != nil {
				return nil, fmt.Errorf("failed to parse page data %s: %w", base+ext, err)
			}
		}
		break
	}

	if data == nil {
		data = make(map[string]any)
	}
	data["filename"] = filename
	return data, nil
}
