// Package render defines the rendering capability shared by the request
// router and the batch engine, together with a few built-in renderers.
package render

import (
	"context"
	"fmt"

	"github.com/cpcf/mirrorgen/postprocess"
)

// Renderer turns the raw content of a source file into rendered output.
// filename is the source path as seen by the pipeline (rooted at the input
// root) and may be used to resolve includes or sibling data files.
//
// Implementations may be called concurrently for unrelated files.
type Renderer interface {
	Render(ctx context.Context, src []byte, filename string) ([]byte, error)
}

// RenderFunc is a function adapter that implements the Renderer interface.
type RenderFunc func(ctx context.Context, src []byte, filename string) ([]byte, error)

// Render implements the Renderer interface.
func (f RenderFunc) Render(ctx context.Context, src []byte, filename string) ([]byte, error) {
	return f(ctx, src, filename)
}

// Simple adapts a context-free render function.
func Simple(fn func(src []byte, filename string) ([]byte, error)) Renderer {
	return RenderFunc(func(_ context.Context, src []byte, filename string) ([]byte, error) {
		return fn(src, filename)
	})
}

// Copy returns the source unchanged.
var Copy = RenderFunc(func(_ context.Context, src []byte, _ string) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
})

// WithPostProcess wraps r so that every rendered result is passed through
// chain before it is returned. Processors see the name returned by
// outputName for the source file, so they can select on the output
// extension; a nil outputName passes the source name through. A nil or
// empty chain returns r unchanged.
func WithPostProcess(r Renderer, chain *postprocess.Chain, outputName func(string) string) Renderer {
	if chain == nil || !chain.HasProcessors() {
		return r
	}
	if outputName == nil {
		outputName = func(name string) string { return name }
	}
	return &postProcessed{next: r, chain: chain, outputName: outputName}
}

type postProcessed struct {
	next       Renderer
	chain      *postprocess.Chain
	outputName func(string) string
}

func (p *postProcessed) Render(ctx context.Context, src []byte, filename string) ([]byte, error) {
	out, err := p.next.Render(ctx, src, filename)
	if err != nil {
		return nil, err
	}
	processed, err := p.chain.Process(p.outputName(filename), out)
	if err != nil {
		return nil, fmt.Errorf("post-processing %s: %w", filename, err)
	}
	return processed, nil
}
