package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/mirrorgen/render"
	mgtest "github.com/cpcf/mirrorgen/testing"
)

func fallthroughHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestMiddleware_Handled(t *testing.T) {
	rt := newRouter(t, render.Copy, siteFS())
	var nextCalled bool
	h := Middleware(rt)(fallthroughHandler(&nextCalled))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/", nil))

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blog", rec.Body.String())
}

func TestMiddleware_Deferred(t *testing.T) {
	rt := newRouter(t, render.Copy, siteFS())
	var nextCalled bool
	h := Middleware(rt)(fallthroughHandler(&nextCalled))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_layout.html", nil))

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddleware_DefaultErrorHandler(t *testing.T) {
	rt := newRouter(t, mgtest.NewMockRenderer().FailOn("src/about.pug", errors.New("bad indent")), siteFS())
	var nextCalled bool
	h := Middleware(rt)(fallthroughHandler(&nextCalled))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about.html", nil))

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad indent")
}

func TestMiddleware_CustomErrorHandler(t *testing.T) {
	errBoom := errors.New("boom")
	rt := newRouter(t, mgtest.NewMockRenderer().FailOn("src/about.pug", errBoom), siteFS())

	var got error
	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusBadGateway)
	}
	var nextCalled bool
	h := Middleware(rt, WithErrorHandler(onError))(fallthroughHandler(&nextCalled))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about.html", nil))

	require.ErrorIs(t, got, errBoom)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, nextCalled)
}

func TestChain(t *testing.T) {
	var order []string
	deferring := func(name string) Handler {
		return HandlerFunc(func(w http.ResponseWriter, r *http.Request) (Outcome, error) {
			order = append(order, name)
			return Deferred, nil
		})
	}
	handling := HandlerFunc(func(w http.ResponseWriter, r *http.Request) (Outcome, error) {
		order = append(order, "handling")
		_, err := w.Write([]byte("ok"))
		return Handled, err
	})

	chain := Chain{deferring("first"), handling, deferring("never")}
	rec := httptest.NewRecorder()
	outcome, err := chain.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, err)
	assert.Equal(t, Handled, outcome)
	assert.Equal(t, []string{"first", "handling"}, order)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestChain_StopsOnError(t *testing.T) {
	errFirst := errors.New("first failed")
	var secondCalled bool
	chain := Chain{
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) (Outcome, error) {
			return Deferred, errFirst
		}),
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) (Outcome, error) {
			secondCalled = true
			return Handled, nil
		}),
	}

	_, err := chain.Handle(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, errFirst)
	assert.False(t, secondCalled)
}

func TestChain_AllDefer(t *testing.T) {
	rtDocs := newRouter(t, render.Copy, siteFS(), WithMount("/docs"))
	rtBlog := newRouter(t, render.Copy, siteFS(), WithMount("/blog"))

	outcome, err := Chain{rtDocs, rtBlog}.Handle(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	require.NoError(t, err)
	assert.Equal(t, Deferred, outcome)
}
