// Package postprocess applies ordered transformations to rendered output.
//
// A Chain runs after a renderer produces content and before that content is
// served or written, so the live preview and the batch build see the same
// bytes. Typical uses:
//
//   - formatting generated source code
//   - normalizing whitespace
//   - validating output before it reaches disk
//
// Example usage:
//
//	chain := postprocess.NewChain()
//	chain.Add(processors.NewGoImports())
//	r := render.WithPostProcess(render.Markdown, chain, nil)
package postprocess

import "fmt"

// Processor transforms rendered content. Implementations must be safe for
// concurrent use; the build engine calls them from many goroutines.
type Processor interface {
	// ProcessContent returns the transformed content. filePath names the
	// output file; processors that do not apply to it return content as is.
	ProcessContent(filePath string, content []byte) ([]byte, error)
}

// ProcessorFunc is a function adapter that implements the Processor interface.
type ProcessorFunc func(filePath string, content []byte) ([]byte, error)

// ProcessContent implements the Processor interface.
func (f ProcessorFunc) ProcessContent(filePath string, content []byte) ([]byte, error) {
	return f(filePath, content)
}

// Chain runs processors in the order they were added.
type Chain struct {
	processors []Processor
}

func NewChain(processors ...Processor) *Chain {
	c := &Chain{processors: make([]Processor, 0, len(processors))}
	for _, p := range processors {
		c.Add(p)
	}
	return c
}

func (c *Chain) Add(processor Processor) {
	c.processors = append(c.processors, processor)
}

func (c *Chain) AddFunc(fn func(filePath string, content []byte) ([]byte, error)) {
	c.processors = append(c.processors, ProcessorFunc(fn))
}

// Process stops at the first failing processor.
func (c *Chain) Process(filePath string, content []byte) ([]byte, error) {
	result := content
	for i, processor := range c.processors {
		processed, err := processor.ProcessContent(filePath, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d failed for %s: %w", i, filePath, err)
		}
		result = processed
	}
	return result, nil
}

func (c *Chain) HasProcessors() bool {
	return c != nil && len(c.processors) > 0
}

func (c *Chain) Len() int {
	return len(c.processors)
}
