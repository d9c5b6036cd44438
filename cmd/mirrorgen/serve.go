package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/cpcf/mirrorgen/router"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(o *rootOptions) *cobra.Command {
	var (
		addr   string
		mount  string
		static string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sources rendered on request",
		Long: `Serve answers each request whose path mirrors a source file by rendering
that file. Other requests, including those for excluded sources, fall
through to a static file server rooted at --static (default: the output
directory).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.load(cmd)
			if err != nil {
				return err
			}

			addr = firstNonEmpty(addr, p.host.Addr, ":8080")
			mount = firstNonEmpty(mount, p.host.Mount, "/")
			static = firstNonEmpty(static, p.host.Static, p.cfg.OutputRoot())

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServeHandler(p, mount, static),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			p.logger.Info("serving",
				"addr", addr,
				"mount", mount,
				"input", display(p.cfg.InputRoot()),
				"static", display(static))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			p.logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&mount, "mount", "", "URL prefix the output tree is served under (default /)")
	cmd.Flags().StringVar(&static, "static", "", "directory served for requests that are not rendered")

	return cmd
}

// newServeHandler renders mirrored sources and serves everything else from
// the static directory.
func newServeHandler(p *pipeline, mount, static string) http.Handler {
	rt := router.New(p.cfg, p.fs, router.WithMount(mount), router.WithLogger(p.logger))

	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		p.logger.Error("render failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		router.DefaultErrorHandler(w, r, err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(p.logger))
	r.Use(middleware.Recoverer)
	r.Use(router.Middleware(rt, router.WithErrorHandler(onError)))

	files := http.FileServer(http.Dir(static))
	if prefix := strings.TrimRight(mount, "/"); prefix != "" {
		files = http.StripPrefix(prefix, files)
	}
	r.Handle("/*", files)

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
