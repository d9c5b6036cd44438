package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Stage names the step of a file's build that failed.
type Stage string

const (
	StageMkdir  Stage = "mkdir"
	StageRead   Stage = "read"
	StageRender Stage = "render"
	StageWrite  Stage = "write"
)

// FileError is the failure of one file in a build. The underlying error is
// kept intact for errors.Is and errors.As.
type FileError struct {
	Input  string
	Output string
	Stage  Stage
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Input, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// MultiError collects every file failure of a build.
type MultiError struct {
	Errors []*FileError
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d files failed:\n%s", len(m.Errors), strings.Join(msgs, "\n"))
}

func (m *MultiError) Add(err *FileError) {
	m.Errors = append(m.Errors, err)
}

func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Unwrap exposes every file error to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	errs := make([]error, len(m.Errors))
	for i, err := range m.Errors {
		errs[i] = err
	}
	return errs
}

func (m *MultiError) sort() {
	sort.Slice(m.Errors, func(i, j int) bool {
		return m.Errors[i].Input < m.Errors[j].Input
	})
}
