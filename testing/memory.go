// Package testing holds helpers for exercising pipelines against an
// in-memory filesystem.
package testing

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// NewMemoryFS returns an in-memory filesystem holding files, keyed by
// slash-separated path. Parent directories are created as needed.
func NewMemoryFS(files map[string]string) billy.Filesystem {
	fsys := memfs.New()
	for name, content := range files {
		if err := WriteFile(fsys, name, content); err != nil {
			panic(err)
		}
	}
	return fsys
}

// WriteFile writes content to name, creating parent directories.
func WriteFile(fsys billy.Filesystem, name, content string) error {
	if err := fsys.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return util.WriteFile(fsys, name, []byte(content), 0o644)
}

// ReadTree returns every regular file below root with its content. A
// missing root yields an empty map.
func ReadTree(fsys billy.Filesystem, root string) (map[string]string, error) {
	tree := make(map[string]string)
	err := util.Walk(fsys, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && name == root {
				return filepath.SkipDir
			}
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		content, err := util.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(name)] = string(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Paths returns the sorted keys of a tree.
func Paths(tree map[string]string) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
