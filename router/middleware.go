package router

import (
	"net/http"
)

// Chain tries each handler in order until one handles the request.
type Chain []Handler

func (c Chain) Handle(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	for _, h := range c {
		outcome, err := h.Handle(w, r)
		if err != nil || outcome == Handled {
			return outcome, err
		}
	}
	return Deferred, nil
}

// ErrorHandler reports a handler error to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareOptions struct {
	onError ErrorHandler
}

type MiddlewareOption func(*middlewareOptions)

// WithErrorHandler replaces the default 500 response for handler errors.
func WithErrorHandler(fn ErrorHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.onError = fn
	}
}

// DefaultErrorHandler responds 500 with the error text.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// Middleware adapts h to net/http. Deferred requests continue to next;
// errors go to the error handler and next is not called.
func Middleware(h Handler, opts ...MiddlewareOption) func(next http.Handler) http.Handler {
	o := middlewareOptions{onError: DefaultErrorHandler}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome, err := h.Handle(w, r)
			switch {
			case err != nil:
				if outcome != Handled {
					o.onError(w, r, err)
				}
			case outcome == Deferred:
				next.ServeHTTP(w, r)
			}
		})
	}
}
