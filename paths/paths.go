// Package paths translates between source paths under the input root and
// rendered paths under the output root.
//
// Every path handled here is in forward-slash form. Translation is purely
// lexical; nothing in this package touches the filesystem.
package paths

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/cpcf/mirrorgen/config"
)

// IndexFile is appended to request paths naming a directory.
const IndexFile = "index.html"

// Candidate is an input/output path pair derived from one canonical path.
// Construct it only through a Translator so the two halves cannot diverge.
type Candidate struct {
	InputPath  string
	OutputPath string
}

type Translator struct {
	inputRoot  string
	outputRoot string
	inputSfx   string
	outputSfx  string
	appendHTML bool
}

func NewTranslator(cfg *config.Config) *Translator {
	return &Translator{
		inputRoot:  cfg.InputRoot(),
		outputRoot: cfg.OutputRoot(),
		inputSfx:   "." + cfg.InputExt(),
		outputSfx:  "." + cfg.OutputExt(),
		appendHTML: cfg.OutputExt() == "html",
	}
}

// ToSlash converts host separators to forward slashes.
func ToSlash(p string) string {
	return filepath.ToSlash(p)
}

// NormalizeRequestPath maps a directory-style request path to its index
// file. Other paths are returned unchanged.
func NormalizeRequestPath(pathname string) string {
	if strings.HasSuffix(pathname, "/") {
		return pathname + IndexFile
	}
	return pathname
}

// ToInputPath maps a path relative to the output root to the source that
// renders it. The relative path is cleaned as if rooted, so it cannot climb
// out of the input root. When the path has no extension and the output
// extension is html, ".html" is assumed. The output extension must match
// exactly, including case; otherwise ok is false.
func (t *Translator) ToInputPath(outputRel string) (inputPath string, ok bool) {
	rel := strings.TrimPrefix(path.Clean("/"+ToSlash(outputRel)), "/")
	if rel == "" {
		return "", false
	}
	if t.appendHTML && path.Ext(rel) == "" {
		rel += t.outputSfx
	}
	if !strings.HasSuffix(rel, t.outputSfx) || len(path.Base(rel)) == len(t.outputSfx) {
		return "", false
	}
	rel = strings.TrimSuffix(rel, t.outputSfx) + t.inputSfx
	return path.Join(t.inputRoot, rel), true
}

// ToOutputPath maps a source path to its rendered path. ok is false when
// inputPath is not below the input root or does not carry the input
// extension.
func (t *Translator) ToOutputPath(inputPath string) (outputPath string, ok bool) {
	rel, ok := t.Rel(inputPath)
	if !ok || !strings.HasSuffix(rel, t.inputSfx) || len(path.Base(rel)) == len(t.inputSfx) {
		return "", false
	}
	rel = strings.TrimSuffix(rel, t.inputSfx) + t.outputSfx
	return path.Join(t.outputRoot, rel), true
}

// Rel returns inputPath relative to the input root. The match is on whole
// segments, so "src2/a" is not inside "src".
func (t *Translator) Rel(inputPath string) (string, bool) {
	p := path.Clean(ToSlash(inputPath))
	if t.inputRoot == "." {
		if p == "." || strings.HasPrefix(p, "../") || p == ".." || path.IsAbs(p) {
			return "", false
		}
		return p, true
	}
	rel, found := strings.CutPrefix(p, t.inputRoot)
	if !found {
		return "", false
	}
	if t.inputRoot != "/" {
		rel, found = strings.CutPrefix(rel, "/")
		if !found {
			return "", false
		}
	}
	if rel == "" {
		return "", false
	}
	return rel, true
}

// FromInput derives a candidate from a discovered source path.
func (t *Translator) FromInput(inputPath string) (Candidate, bool) {
	inputPath = path.Clean(ToSlash(inputPath))
	out, ok := t.ToOutputPath(inputPath)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{InputPath: inputPath, OutputPath: out}, true
}

// FromRequest derives a candidate from a path relative to the output root,
// such as a request path with its mount prefix removed.
func (t *Translator) FromRequest(outputRel string) (Candidate, bool) {
	in, ok := t.ToInputPath(outputRel)
	if !ok {
		return Candidate{}, false
	}
	out, ok := t.ToOutputPath(in)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{InputPath: in, OutputPath: out}, true
}
