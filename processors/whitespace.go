package processors

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cpcf/mirrorgen/postprocess"
)

// TrimTrailingNewlines collapses any run of trailing whitespace to a single
// newline. Empty content stays empty.
var TrimTrailingNewlines = postprocess.ProcessorFunc(func(_ string, content []byte) ([]byte, error) {
	trimmed := bytes.TrimRight(content, " \t\r\n")
	if len(trimmed) == 0 {
		return trimmed, nil
	}
	out := make([]byte, 0, len(trimmed)+1)
	out = append(out, trimmed...)
	return append(out, '\n'), nil
})

var builtin = map[string]func() postprocess.Processor{
	"goimports":    func() postprocess.Processor { return NewGoImports() },
	"trim-newline": func() postprocess.Processor { return TrimTrailingNewlines },
}

// Lookup returns a new instance of the named built-in processor.
func Lookup(name string) (postprocess.Processor, bool) {
	ctor, ok := builtin[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Names lists the built-in processor names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewChain builds a chain from processor names, failing on the first
// unknown name.
func NewChain(names ...string) (*postprocess.Chain, error) {
	chain := postprocess.NewChain()
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown post-processor %q (available: %v)", name, Names())
		}
		chain.Add(p)
	}
	return chain, nil
}
