// Package engine renders every source file of a pipeline to disk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cpcf/mirrorgen/config"
	"github.com/cpcf/mirrorgen/exclude"
	"github.com/cpcf/mirrorgen/paths"
	"github.com/cpcf/mirrorgen/state"
	"github.com/cpcf/mirrorgen/write"
)

type Engine struct {
	cfg         *config.Config
	fs          billy.Filesystem
	logger      *slog.Logger
	translator  *paths.Translator
	filter      *exclude.Filter
	writer      write.Writer
	concurrency int
	manifest    bool
	clean       bool
}

func New(cfg *config.Config, fs billy.Filesystem, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		fs:         fs,
		logger:     slog.Default(),
		translator: paths.NewTranslator(cfg),
		filter:     exclude.New(cfg),
		writer:     write.NewBaseWriter(fs),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Plan discovers the sources to build and pairs each with its output path.
// A file is a source when it is a regular file below the input root, ends
// in the input extension and is not excluded. Symlinks are followed, so a
// source is planned exactly when a request for it would be served. The
// result is sorted by input path.
func (e *Engine) Plan(ctx context.Context) ([]paths.Candidate, error) {
	var candidates []paths.Candidate

	root := e.cfg.InputRoot()
	err := e.walkFiles(ctx, root, 0, func(name string) {
		candidate, ok := e.translator.FromInput(name)
		if !ok {
			return
		}
		if e.filter.Excluded(candidate.InputPath) {
			e.logger.Debug("skipping excluded source", "path", candidate.InputPath)
			return
		}
		candidates = append(candidates, candidate)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources in %s: %w", root, err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].InputPath < candidates[j].InputPath
	})
	return candidates, nil
}

// maxLinkDepth bounds how many directory symlinks discovery follows along
// one path.
const maxLinkDepth = 16

// errLinkDepth reports a chain of directory symlinks deeper than
// maxLinkDepth, usually a cycle.
var errLinkDepth = errors.New("too many levels of symbolic links")

// walkFiles calls fn for every regular file below root, following symlinks
// the way Stat does. A directory link pointing at one of its own ancestors
// is skipped.
func (e *Engine) walkFiles(ctx context.Context, root string, depth int, fn func(name string)) error {
	return util.Walk(e.fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			if info.Mode().IsRegular() {
				fn(name)
			}
			return nil
		}

		target, err := e.fs.Stat(name)
		switch {
		case err != nil:
			e.logger.Debug("skipping broken symlink", "path", name)
			return nil
		case target.Mode().IsRegular():
			fn(name)
			return nil
		case !target.IsDir():
			return nil
		case e.linksToAncestor(name):
			e.logger.Debug("skipping symlink cycle", "path", name)
			return nil
		case depth >= maxLinkDepth:
			return fmt.Errorf("%s: %w", name, errLinkDepth)
		}

		entries, err := e.fs.ReadDir(name)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := e.walkFiles(ctx, path.Join(name, entry.Name()), depth+1, fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) linksToAncestor(name string) bool {
	target, err := e.fs.Readlink(name)
	if err != nil {
		return false
	}
	target = filepath.ToSlash(target)
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(name), target)
	}
	return config.Contains(path.Clean(target), path.Clean(name))
}

// Build renders every planned source concurrently and waits for all of
// them. A failing file does not stop the others: files that succeed are
// written, and the build then fails with a *MultiError describing every
// failure. The report is returned in both cases.
func (e *Engine) Build(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:      uuid.New(),
		Started: time.Now(),
	}

	if e.clean {
		summary, err := state.Clean(e.fs, e.cfg.OutputRoot(), e.cfg.InputRoot())
		if err != nil {
			return report, fmt.Errorf("failed to clean output: %w", err)
		}
		e.logger.Debug("cleaned output", "root", e.cfg.OutputRoot(), "mode", summary.Mode, "files", summary.FilesDeleted)
	}

	candidates, err := e.Plan(ctx)
	if err != nil {
		return report, err
	}
	e.logger.Debug("discovered sources", "build", report.ID, "count", len(candidates))

	var (
		g         errgroup.Group
		mu        sync.Mutex
		failures  MultiError
		contents  = make(map[string][]byte)
		keepBytes = e.manifest
	)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	for _, candidate := range candidates {
		g.Go(func() error {
			result, content, ferr := e.buildFile(ctx, candidate)

			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				failures.Add(ferr)
				return ferr
			}
			report.Files = append(report.Files, result)
			if keepBytes {
				contents[candidate.OutputPath] = content
			}
			return nil
		})
	}
	// Every task has finished once Wait returns; failures holds them all.
	_ = g.Wait()

	report.finish()

	if failures.HasErrors() {
		failures.sort()
		return report, &failures
	}

	if e.manifest {
		if err := e.saveManifest(report, contents); err != nil {
			return report, err
		}
	}

	e.logger.Info("build complete",
		"build", report.ID,
		"files", len(report.Files),
		"bytes", report.Bytes(),
		"duration", report.Duration)
	return report, nil
}

func (e *Engine) buildFile(ctx context.Context, c paths.Candidate) (FileResult, []byte, *FileError) {
	start := time.Now()
	fail := func(stage Stage, err error) (FileResult, []byte, *FileError) {
		return FileResult{}, nil, &FileError{Input: c.InputPath, Output: c.OutputPath, Stage: stage, Err: err}
	}

	if dir := path.Dir(c.OutputPath); dir != "." && dir != "/" {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return fail(StageMkdir, err)
		}
	}

	src, err := util.ReadFile(e.fs, c.InputPath)
	if err != nil {
		return fail(StageRead, err)
	}

	out, err := e.cfg.Renderer().Render(ctx, src, c.InputPath)
	if err != nil {
		return fail(StageRender, err)
	}

	if err := e.writer.Write(c.OutputPath, out, write.WriteOptions{Overwrite: true}); err != nil {
		return fail(StageWrite, err)
	}

	e.logger.Info("rendered file", "input", c.InputPath, "output", c.OutputPath)
	return FileResult{
		Input:    c.InputPath,
		Output:   c.OutputPath,
		Bytes:    len(out),
		Duration: time.Since(start),
	}, out, nil
}

func (e *Engine) saveManifest(report *Report, contents map[string][]byte) error {
	mm := state.NewManifestManager(e.fs, e.cfg.OutputRoot())
	manifest := mm.NewManifest()
	manifest.BuildID = report.ID.String()
	for _, f := range report.Files {
		if err := mm.AddEntry(manifest, f.Output, f.Input, contents[f.Output]); err != nil {
			return fmt.Errorf("failed to record %s in manifest: %w", f.Output, err)
		}
	}
	if err := mm.SaveManifest(manifest); err != nil {
		return err
	}
	return nil
}
