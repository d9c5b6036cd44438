package engine

import (
	"log/slog"

	"github.com/cpcf/mirrorgen/write"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConcurrency caps the number of files rendered at once. Zero or less
// means one goroutine per discovered file.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithWriter replaces the writer used for output files.
func WithWriter(w write.Writer) Option {
	return func(e *Engine) {
		e.writer = w
	}
}

// WithManifest records every written output in a manifest file under the
// output root after a successful build.
func WithManifest(enabled bool) Option {
	return func(e *Engine) {
		e.manifest = enabled
	}
}

// WithClean removes previously generated output before building.
func WithClean(enabled bool) Option {
	return func(e *Engine) {
		e.clean = enabled
	}
}
