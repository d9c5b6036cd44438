// Package write writes rendered output to a billy filesystem.
package write

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

type Writer interface {
	Write(path string, content []byte, options WriteOptions) error
	NeedsWrite(path string, content []byte) (bool, error)
}

type WriteOptions struct {
	CreateDirs bool
	Overwrite  bool
	Atomic     bool
}

// DirError is returned when the parent directory of an output cannot be
// created, so callers can tell it apart from a failed write.
type DirError struct {
	Dir string
	Err error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("failed to create directory %s: %v", e.Dir, e.Err)
}

func (e *DirError) Unwrap() error {
	return e.Err
}

type BaseWriter struct {
	fs billy.Filesystem
}

func NewBaseWriter(fs billy.Filesystem) *BaseWriter {
	return &BaseWriter{fs: fs}
}

// Write stores content at name. Directory creation is idempotent, so
// concurrent writers sharing a parent directory do not interfere.
func (bw *BaseWriter) Write(name string, content []byte, options WriteOptions) error {
	if options.CreateDirs {
		if err := bw.EnsureDir(name); err != nil {
			return err
		}
	}

	if !options.Overwrite {
		if _, err := bw.fs.Stat(name); err == nil {
			return fmt.Errorf("file already exists and overwrite is false: %s", name)
		}
	}

	if options.Atomic {
		return bw.atomicWrite(name, content)
	}

	return util.WriteFile(bw.fs, name, content, 0o644)
}

// EnsureDir creates the parent directory of name and any missing ancestors.
func (bw *BaseWriter) EnsureDir(name string) error {
	dir := path.Dir(name)
	if dir == "." || dir == "/" {
		return nil
	}
	if err := bw.fs.MkdirAll(dir, 0o755); err != nil {
		return &DirError{Dir: dir, Err: err}
	}
	return nil
}

func (bw *BaseWriter) NeedsWrite(name string, content []byte) (bool, error) {
	existing, err := util.ReadFile(bw.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	return !bytes.Equal(existing, content), nil
}

func (bw *BaseWriter) atomicWrite(name string, content []byte) error {
	tempPath := name + ".tmp"

	if err := util.WriteFile(bw.fs, tempPath, content, 0o644); err != nil {
		bw.fs.Remove(tempPath)
		return err
	}

	if err := bw.fs.Rename(tempPath, name); err != nil {
		bw.fs.Remove(tempPath)
		return err
	}
	return nil
}
