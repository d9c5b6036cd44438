// Package exclude decides which source files are hidden from both the
// request router and the batch build.
package exclude

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cpcf/mirrorgen/config"
	"github.com/cpcf/mirrorgen/paths"
)

// Filter matches source paths against the configured exclusion patterns.
// Each pattern is rooted at the input root, so "**/_*" with root "src"
// is evaluated as "src/**/_*". A Filter is safe for concurrent use.
type Filter struct {
	patterns []string
	rooted   []string
}

func New(cfg *config.Config) *Filter {
	patterns := cfg.Exclude()
	f := &Filter{
		patterns: patterns,
		rooted:   make([]string, len(patterns)),
	}
	root := escapeMeta(cfg.InputRoot())
	for i, pattern := range patterns {
		f.rooted[i] = rootPattern(root, pattern)
	}
	return f
}

// Excluded reports whether any pattern matches inputPath.
func (f *Filter) Excluded(inputPath string) bool {
	_, ok := f.Match(inputPath)
	return ok
}

// Match returns the first configured pattern matching inputPath.
func (f *Filter) Match(inputPath string) (pattern string, ok bool) {
	name := path.Clean(paths.ToSlash(inputPath))
	for i, rooted := range f.rooted {
		// Patterns were validated by config, so Match cannot fail here.
		if matched, _ := doublestar.Match(rooted, name); matched {
			return f.patterns[i], true
		}
	}
	return "", false
}

// Patterns returns the patterns as rooted at the input root.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.rooted))
	copy(out, f.rooted)
	return out
}

func rootPattern(root, pattern string) string {
	pattern = paths.ToSlash(pattern)
	if root == "." {
		return strings.TrimPrefix(pattern, "./")
	}
	if strings.HasPrefix(pattern, "/") {
		return pattern
	}
	return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(pattern, "./")
}

// escapeMeta quotes glob metacharacters in a literal path.
func escapeMeta(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
