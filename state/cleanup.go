package state

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/cpcf/mirrorgen/config"
)

// ErrProtectedRoot is returned when removing the output root would also
// remove a protected directory such as the input root.
var ErrProtectedRoot = errors.New("output root contains a protected directory")

type CleanupMode int

const (
	// CleanupModeManifest removes only files listed in the manifest.
	CleanupModeManifest CleanupMode = iota
	// CleanupModeAll removes the whole output root.
	CleanupModeAll
)

func (cm CleanupMode) String() string {
	switch cm {
	case CleanupModeManifest:
		return "manifest"
	case CleanupModeAll:
		return "all"
	default:
		return "unknown"
	}
}

type CleanupSummary struct {
	Mode         CleanupMode `json:"mode"`
	FilesDeleted int         `json:"files_deleted"`
	DirsDeleted  int         `json:"dirs_deleted"`
}

// Clean removes generated output below outputRoot. With a manifest present
// only the recorded files (and directories left empty) are removed, so
// hand-placed files survive; otherwise the output root is removed entirely,
// unless it contains one of the protected paths.
func Clean(fs billy.Filesystem, outputRoot string, protected ...string) (CleanupSummary, error) {
	mm := NewManifestManager(fs, outputRoot)
	manifest, exists, err := mm.LoadManifest()
	if err != nil {
		return CleanupSummary{}, err
	}

	if !exists {
		summary := CleanupSummary{Mode: CleanupModeAll}
		root := path.Clean(outputRoot)
		for _, p := range protected {
			if config.Contains(root, path.Clean(p)) {
				return summary, fmt.Errorf("refusing to remove %s: %w (%s)", outputRoot, ErrProtectedRoot, p)
			}
		}
		if _, err := fs.Stat(outputRoot); errors.Is(err, os.ErrNotExist) {
			return summary, nil
		}
		if err := util.RemoveAll(fs, outputRoot); err != nil {
			return summary, fmt.Errorf("failed to remove %s: %w", outputRoot, err)
		}
		summary.DirsDeleted = 1
		return summary, nil
	}

	summary := CleanupSummary{Mode: CleanupModeManifest}
	dirs := make(map[string]struct{})
	for _, entry := range mm.ListEntries(manifest) {
		full := path.Join(outputRoot, entry.Path)
		if err := fs.Remove(full); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return summary, fmt.Errorf("failed to remove %s: %w", full, err)
		}
		summary.FilesDeleted++
		for dir := path.Dir(entry.Path); dir != "."; dir = path.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}

	if err := fs.Remove(mm.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return summary, fmt.Errorf("failed to remove manifest: %w", err)
	}

	// Deepest first, so parents are empty by the time they are checked.
	ordered := make([]string, 0, len(dirs))
	for dir := range dirs {
		ordered = append(ordered, dir)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})
	for _, dir := range ordered {
		full := path.Join(outputRoot, dir)
		entries, err := fs.ReadDir(full)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := fs.Remove(full); err == nil {
			summary.DirsDeleted++
		}
	}

	return summary, nil
}
