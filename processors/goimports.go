// Package processors provides built-in post-processors for rendered output.
package processors

import (
	"fmt"
	"go/format"
	"path"
	"strings"

	"golang.org/x/tools/imports"
)

// GoImports fixes imports and formats rendered Go source. Output that does
// not end in .go passes through unchanged, which lets one chain serve a
// pipeline producing mixed outputs.
type GoImports struct {
	TabWidth  int
	TabIndent bool
	Comments  bool
}

func NewGoImports() *GoImports {
	return &GoImports{
		TabWidth:  8,
		TabIndent: true,
		Comments:  true,
	}
}

// ProcessContent implements the postprocess.Processor interface.
func (g *GoImports) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !isGoFile(filePath) {
		return content, nil
	}

	options := &imports.Options{
		Comments:  g.Comments,
		TabIndent: g.TabIndent,
		TabWidth:  g.TabWidth,
	}

	formatted, err := imports.Process(filePath, content, options)
	if err == nil {
		return formatted, nil
	}

	// goimports needs a parseable file; gofmt reports the same syntax error
	// but keeps the message short.
	formatted, fmtErr := format.Source(content)
	if fmtErr != nil {
		return nil, fmt.Errorf("formatting %s: goimports: %w; gofmt: %w", filePath, err, fmtErr)
	}
	return formatted, nil
}

func isGoFile(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".go")
}
