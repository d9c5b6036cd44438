package testing

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// FaultyFS wraps a filesystem and fails selected operations on paths with
// a matching prefix. Unmatched operations pass through.
type FaultyFS struct {
	billy.Filesystem

	MkdirPrefix string
	MkdirErr    error
	WritePrefix string
	WriteErr    error
}

func (f *FaultyFS) MkdirAll(name string, perm os.FileMode) error {
	if f.MkdirErr != nil && hasPrefix(name, f.MkdirPrefix) {
		return &os.PathError{Op: "mkdir", Path: name, Err: f.MkdirErr}
	}
	return f.Filesystem.MkdirAll(name, perm)
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if f.WriteErr != nil && flag&(os.O_WRONLY|os.O_RDWR) != 0 && hasPrefix(name, f.WritePrefix) {
		return nil, &os.PathError{Op: "open", Path: name, Err: f.WriteErr}
	}
	return f.Filesystem.OpenFile(name, flag, perm)
}

func (f *FaultyFS) Create(name string) (billy.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func hasPrefix(name, prefix string) bool {
	return strings.HasPrefix(filepath.ToSlash(name), prefix)
}
