package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/mirrorgen/config"
	"github.com/cpcf/mirrorgen/render"
	mgtest "github.com/cpcf/mirrorgen/testing"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func siteFS() billy.Filesystem {
	return mgtest.NewMemoryFS(map[string]string{
		"src/index.pug":            "home",
		"src/about.pug":            "about",
		"src/blog/index.pug":       "blog",
		"src/blog/post.pug":        "post",
		"src/_layout.pug":          "layout",
		"src/_partials/header.pug": "header",
		"src/dir.pug/child.pug":    "child",
	})
}

func newRouter(t *testing.T, r render.Renderer, fs billy.Filesystem, opts ...Option) *Router {
	t.Helper()
	cfg, err := config.New(config.Options{
		Input:     "src",
		InputExt:  "pug",
		Output:    "dist",
		OutputExt: "html",
		Renderer:  r,
	})
	require.NoError(t, err)
	return New(cfg, fs, append([]Option{WithLogger(quiet)}, opts...)...)
}

func TestResolve(t *testing.T) {
	rt := newRouter(t, render.Copy, siteFS())

	tests := []struct {
		path     string
		decision Decision
		input    string
	}{
		{"/about.html", Render, "src/about.pug"},
		{"/about", Render, "src/about.pug"},
		{"/", Render, "src/index.pug"},
		{"/blog/", Render, "src/blog/index.pug"},
		{"/blog/post.html", Render, "src/blog/post.pug"},
		{"/missing.html", DeferMissing, ""},
		{"/about.HTML", DeferMissing, ""},
		{"/about.css", DeferMissing, ""},
		{"/_layout.html", DeferExcluded, "src/_layout.pug"},
		{"/_partials/header.html", DeferExcluded, "src/_partials/header.pug"},
		{"/dir.html", DeferMissing, ""},
		{"/../../etc/passwd.html", DeferMissing, ""},
		{"/../about.html", Render, "src/about.pug"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			candidate, decision := rt.Resolve(tt.path)
			assert.Equal(t, tt.decision, decision)
			if tt.input != "" {
				assert.Equal(t, tt.input, candidate.InputPath)
			}
		})
	}
}

func TestResolve_Mount(t *testing.T) {
	rt := newRouter(t, render.Copy, siteFS(), WithMount("/docs/"))
	assert.Equal(t, "/docs/", rt.Mount())

	tests := []struct {
		path     string
		decision Decision
	}{
		{"/docs/about.html", Render},
		{"/docs/", Render},
		{"/about.html", DeferPrefix},
		{"/docsx/about.html", DeferPrefix},
		{"/other/docs/about.html", DeferPrefix},
		{"/docs", DeferPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, decision := rt.Resolve(tt.path)
			assert.Equal(t, tt.decision, decision)
		})
	}
}

func TestHandle_Renders(t *testing.T) {
	renderer := mgtest.NewMockRenderer()
	rt := newRouter(t, renderer, siteFS())

	req := httptest.NewRequest(http.MethodGet, "/about.html?v=2", nil)
	rec := httptest.NewRecorder()

	outcome, err := rt.Handle(rec, req)
	require.NoError(t, err)
	assert.Equal(t, Handled, outcome)
	assert.Equal(t, "src/about.pug|about", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, renderer.CallCount())
}

func TestHandle_DeferredWritesNothing(t *testing.T) {
	renderer := mgtest.NewMockRenderer()
	rt := newRouter(t, renderer, siteFS())

	for _, p := range []string{"/missing.html", "/_layout.html", "/style.css"} {
		rec := httptest.NewRecorder()
		outcome, err := rt.Handle(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.NoError(t, err)
		assert.Equal(t, Deferred, outcome, p)
		assert.Empty(t, rec.Header(), p)
		assert.Zero(t, rec.Body.Len(), p)
	}
	assert.Zero(t, renderer.CallCount(), "excluded and missing files must not be rendered")
}

func TestHandle_RenderError(t *testing.T) {
	errSyntax := errors.New("unexpected token")
	rt := newRouter(t, mgtest.NewMockRenderer().FailOn("src/about.pug", errSyntax), siteFS())

	rec := httptest.NewRecorder()
	outcome, err := rt.Handle(rec, httptest.NewRequest(http.MethodGet, "/about.html", nil))

	require.ErrorIs(t, err, errSyntax)
	assert.Contains(t, err.Error(), "src/about.pug")
	assert.Equal(t, Deferred, outcome)
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestHandle_PassesRequestContext(t *testing.T) {
	type key struct{}
	var seen any
	renderer := render.RenderFunc(func(ctx context.Context, src []byte, _ string) ([]byte, error) {
		seen = ctx.Value(key{})
		return src, nil
	})
	rt := newRouter(t, renderer, siteFS())

	req := httptest.NewRequest(http.MethodGet, "/about.html", nil)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "request-scoped"))

	_, err := rt.Handle(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, "request-scoped", seen)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/css; charset=utf-8", ContentType("dist/site.css"))
	assert.Equal(t, "application/octet-stream", ContentType("dist/blob.unknownext"))
	assert.Equal(t, "application/octet-stream", ContentType("dist/noext"))
}
