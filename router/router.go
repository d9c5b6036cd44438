// Package router renders source files on demand for HTTP requests whose
// path mirrors a file in the input tree.
package router

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/cpcf/mirrorgen/config"
	"github.com/cpcf/mirrorgen/exclude"
	"github.com/cpcf/mirrorgen/paths"
)

// Outcome reports whether a handler produced the response.
type Outcome int

const (
	// Deferred means the request was left for the next handler. Nothing
	// has been written to the response.
	Deferred Outcome = iota
	// Handled means the response was written.
	Handled
)

func (o Outcome) String() string {
	switch o {
	case Deferred:
		return "deferred"
	case Handled:
		return "handled"
	default:
		return "unknown"
	}
}

// Decision is the terminal state of request resolution.
type Decision int

const (
	DeferPrefix Decision = iota
	DeferMissing
	DeferExcluded
	Render
)

func (d Decision) String() string {
	switch d {
	case DeferPrefix:
		return "defer-prefix"
	case DeferMissing:
		return "defer-missing"
	case DeferExcluded:
		return "defer-excluded"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

type Handler interface {
	Handle(w http.ResponseWriter, r *http.Request) (Outcome, error)
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) (Outcome, error)

func (f HandlerFunc) Handle(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	return f(w, r)
}

type Router struct {
	cfg        *config.Config
	fs         billy.Filesystem
	logger     *slog.Logger
	translator *paths.Translator
	filter     *exclude.Filter
	prefix     string
}

type Option func(*Router)

// WithMount serves the output tree below prefix instead of at "/".
// Trailing slashes are ignored, so "/docs" and "/docs/" are the same mount.
func WithMount(prefix string) Option {
	return func(r *Router) {
		r.prefix = mountPrefix(prefix)
	}
}

// WithLogger traces routing decisions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

func New(cfg *config.Config, fs billy.Filesystem, opts ...Option) *Router {
	r := &Router{
		cfg:        cfg,
		fs:         fs,
		logger:     slog.Default(),
		translator: paths.NewTranslator(cfg),
		filter:     exclude.New(cfg),
		prefix:     "/",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Mount returns the prefix every handled request path starts with.
func (rt *Router) Mount() string {
	return rt.prefix
}

// Resolve runs the prefix, existence and exclusion checks for a request
// path. The candidate is only meaningful when the decision is Render or
// DeferExcluded.
func (rt *Router) Resolve(requestPath string) (paths.Candidate, Decision) {
	p := paths.NormalizeRequestPath(requestPath)

	rel, ok := strings.CutPrefix(p, rt.prefix)
	if !ok {
		return paths.Candidate{}, DeferPrefix
	}

	candidate, ok := rt.translator.FromRequest(rel)
	if !ok {
		return paths.Candidate{}, DeferMissing
	}

	info, err := rt.fs.Stat(candidate.InputPath)
	if err != nil || !info.Mode().IsRegular() {
		return candidate, DeferMissing
	}

	if rt.filter.Excluded(candidate.InputPath) {
		return candidate, DeferExcluded
	}

	return candidate, Render
}

// Handle renders the source mirrored by the request path. Read and render
// failures are returned with nothing written, so the caller decides how to
// report them.
func (rt *Router) Handle(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	candidate, decision := rt.Resolve(r.URL.Path)
	rt.logger.Debug("routed request", "path", r.URL.Path, "decision", decision, "input", candidate.InputPath)
	if decision != Render {
		return Deferred, nil
	}

	src, err := util.ReadFile(rt.fs, candidate.InputPath)
	if err != nil {
		return Deferred, fmt.Errorf("failed to read %s: %w", candidate.InputPath, err)
	}

	out, err := rt.cfg.Renderer().Render(r.Context(), src, candidate.InputPath)
	if err != nil {
		return Deferred, fmt.Errorf("failed to render %s: %w", candidate.InputPath, err)
	}

	w.Header().Set("Content-Type", ContentType(candidate.OutputPath))
	if _, err := w.Write(out); err != nil {
		return Handled, fmt.Errorf("failed to write response for %s: %w", candidate.InputPath, err)
	}
	return Handled, nil
}

// ContentType derives a MIME type from the extension of name.
func ContentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func mountPrefix(mount string) string {
	return strings.TrimRight(mount, "/") + "/"
}
