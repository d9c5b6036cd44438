// Package config validates pipeline settings into an immutable Config
package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cpcf/mirrorgen/render"
)

const (
	DefaultInput  = "./src"
	DefaultOutput = "./dist"
)

// DefaultExclude hides "_"-prefixed files and everything below
// "_"-prefixed directories.
var DefaultExclude = []string{"**/_*", "**/_*/**"}

// ConfigError reports the first invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Options is the caller-facing form of a Config. Zero values select
// defaults; a nil Exclude selects DefaultExclude while an empty, non-nil
// Exclude excludes nothing.
type Options struct {
	Input     string
	InputExt  string
	Output    string
	OutputExt string
	Exclude   []string
	Renderer  render.Renderer
}

// Config is the validated, normalized pipeline configuration. It is never
// modified after New returns.
type Config struct {
	inputRoot  string
	inputExt   string
	outputRoot string
	outputExt  string
	exclude    []string
	renderer   render.Renderer
}

// New validates opts in field order and fails on the first violation.
func New(opts Options) (*Config, error) {
	c := &Config{}
	c.setInput(opts.Input)
	if err := c.setInputExt(opts.InputExt); err != nil {
		return nil, err
	}
	if err := c.setOutput(opts.Output); err != nil {
		return nil, err
	}
	if err := c.setOutputExt(opts.OutputExt); err != nil {
		return nil, err
	}
	if err := c.setExclude(opts.Exclude); err != nil {
		return nil, err
	}
	if err := c.setRenderer(opts.Renderer); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setInput(input string) {
	if input == "" {
		input = DefaultInput
	}
	c.inputRoot = cleanRoot(input)
}

func (c *Config) setInputExt(ext string) error {
	ext, err := normalizeExt("inputExt", ext)
	if err != nil {
		return err
	}
	c.inputExt = ext
	return nil
}

// setOutput requires the output root to be disjoint from the input root.
// An output root holding the sources would be removed by a clean, and one
// inside the input root would feed outputs back into discovery.
func (c *Config) setOutput(output string) error {
	if output == "" {
		output = DefaultOutput
	}
	c.outputRoot = cleanRoot(output)
	switch {
	case c.outputRoot == c.inputRoot:
		return &ConfigError{Field: "output", Reason: fmt.Sprintf("must differ from input %q", c.inputRoot)}
	case Contains(c.outputRoot, c.inputRoot):
		return &ConfigError{Field: "output", Reason: fmt.Sprintf("%q must not contain input %q", c.outputRoot, c.inputRoot)}
	case Contains(c.inputRoot, c.outputRoot):
		return &ConfigError{Field: "output", Reason: fmt.Sprintf("%q must not be inside input %q", c.outputRoot, c.inputRoot)}
	}
	return nil
}

func (c *Config) setOutputExt(ext string) error {
	ext, err := normalizeExt("outputExt", ext)
	if err != nil {
		return err
	}
	c.outputExt = ext
	return nil
}

func (c *Config) setExclude(exclude []string) error {
	if exclude == nil {
		exclude = DefaultExclude
	}
	c.exclude = make([]string, 0, len(exclude))
	for i, pattern := range exclude {
		pattern = filepath.ToSlash(pattern)
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return &ConfigError{Field: "exclude", Reason: fmt.Sprintf("pattern %d (%q) is not a valid glob", i, pattern)}
		}
		c.exclude = append(c.exclude, pattern)
	}
	return nil
}

func (c *Config) setRenderer(r render.Renderer) error {
	if r == nil {
		return &ConfigError{Field: "render", Reason: "a renderer is required"}
	}
	c.renderer = r
	return nil
}

func (c *Config) InputRoot() string  { return c.inputRoot }
func (c *Config) InputExt() string   { return c.inputExt }
func (c *Config) OutputRoot() string { return c.outputRoot }
func (c *Config) OutputExt() string  { return c.outputExt }

// Exclude returns a copy of the exclusion patterns.
func (c *Config) Exclude() []string {
	out := make([]string, len(c.exclude))
	copy(out, c.exclude)
	return out
}

func (c *Config) Renderer() render.Renderer { return c.renderer }

// WithRenderer returns a copy of c using r.
func (c *Config) WithRenderer(r render.Renderer) (*Config, error) {
	if r == nil {
		return nil, &ConfigError{Field: "render", Reason: "a renderer is required"}
	}
	cp := *c
	cp.exclude = c.Exclude()
	cp.renderer = r
	return &cp, nil
}

// Options returns the settings c was built from, after normalization.
func (c *Config) Options() Options {
	return Options{
		Input:     c.inputRoot,
		InputExt:  c.inputExt,
		Output:    c.outputRoot,
		OutputExt: c.outputExt,
		Exclude:   c.Exclude(),
		Renderer:  c.renderer,
	}
}

// Contains reports whether root holds p, comparing whole path segments:
// "src" contains "src/blog" but not "src2". Both are cleaned slash paths.
// A root contains itself.
func Contains(root, p string) bool {
	switch {
	case root == p:
		return true
	case root == ".":
		return !path.IsAbs(p) && p != ".." && !strings.HasPrefix(p, "../")
	case root == "/":
		return path.IsAbs(p)
	}
	return strings.HasPrefix(p, root+"/")
}

func cleanRoot(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func normalizeExt(field, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	switch {
	case ext == "":
		return "", &ConfigError{Field: field, Reason: "must be a non-empty extension"}
	case strings.ContainsAny(ext, `/\`):
		return "", &ConfigError{Field: field, Reason: fmt.Sprintf("%q must not contain a path separator", ext)}
	case strings.HasPrefix(ext, "."):
		return "", &ConfigError{Field: field, Reason: fmt.Sprintf("%q has more than one leading dot", ext)}
	}
	return ext, nil
}
