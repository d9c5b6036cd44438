package render

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// partial is a named template loaded from a "_"-prefixed file.
type partial struct {
	name    string
	path    string
	content string
}

// isPartialFile reports whether base names a partial for sources with
// extension ext.
func isPartialFile(base, ext string) bool {
	return strings.HasPrefix(base, "_") && path.Ext(base) == ext && len(base) > len(ext)+1
}

// partialName strips the underscore and extension: "_header.tmpl" is
// "header".
func partialName(base string) string {
	return strings.TrimSuffix(strings.TrimPrefix(base, "_"), path.Ext(base))
}

// findPartials loads the partials next to filename: regular files in the
// same directory whose names start with "_" and share its extension. They
// are sorted by name.
func findPartials(fsys billy.Filesystem, filename string) ([]partial, error) {
	dir := path.Dir(filename)
	ext := path.Ext(filename)

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list partials in %s: %w", dir, err)
	}

	var found []partial
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !isPartialFile(entry.Name(), ext) {
			continue
		}
		p := path.Join(dir, entry.Name())
		if p == path.Clean(filename) {
			continue
		}
		content, err := util.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial %s: %w", p, err)
		}
		found = append(found, partial{name: partialName(entry.Name()), path: p, content: string(content)})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].name < found[j].name
	})
	return found, nil
}
