package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-git/go-billy/v5"
)

// Registry maps renderer names, as used in configuration files, to
// Renderer values.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	metadata  map[string]Metadata
}

type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
		metadata:  make(map[string]Metadata),
	}
}

// DefaultRegistry returns a registry holding the built-in renderers.
// Template renderers read page data through fsys.
func DefaultRegistry(fsys billy.Filesystem) *Registry {
	r := NewRegistry()
	r.mustRegister("copy", Copy, "copy sources unchanged")
	r.mustRegister("template", NewTemplate(fsys, WithPartials()), "Go text/template with sibling page data and _partials")
	r.mustRegister("html-template", NewTemplate(fsys, WithHTMLEscaping(), WithPartials()), "Go html/template with sibling page data and _partials")
	r.mustRegister("markdown", Markdown, "Markdown to HTML")
	r.mustRegister("page", NewPage(fsys), "GitHub-flavored Markdown with front matter, layouts and highlighted code")
	r.mustRegister("html2md", HTMLToMarkdown, "HTML to Markdown")
	return r
}

func (r *Registry) Register(name string, renderer Renderer, description string) error {
	if name == "" {
		return fmt.Errorf("renderer name cannot be empty")
	}
	if renderer == nil {
		return fmt.Errorf("renderer %q cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("renderer %q already registered", name)
	}
	r.renderers[name] = renderer
	r.metadata[name] = Metadata{Name: name, Description: description}
	return nil
}

func (r *Registry) mustRegister(name string, renderer Renderer, description string) {
	if err := r.Register(name, renderer, description); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	return renderer, ok
}

// List returns the registered renderers sorted by name.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Metadata, 0, len(r.metadata))
	for _, meta := range r.metadata {
		list = append(list, meta)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
