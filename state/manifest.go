// Package state records which output files a build produced.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/cpcf/mirrorgen/write"
)

// ManifestName is the manifest file name inside the output root.
const ManifestName = ".mirrorgen.manifest.json"

type ManifestEntry struct {
	Path   string `json:"path"`
	Source string `json:"source"`
	Hash   string `json:"hash"`
	Size   int64  `json:"size"`
}

type Manifest struct {
	Version    string                   `json:"version"`
	BuildID    string                   `json:"build_id,omitempty"`
	Generated  time.Time                `json:"generated"`
	OutputRoot string                   `json:"output_root"`
	Entries    map[string]ManifestEntry `json:"entries"`
}

type ManifestManager struct {
	fs           billy.Filesystem
	outputRoot   string
	manifestPath string
}

func NewManifestManager(fs billy.Filesystem, outputRoot string) *ManifestManager {
	return &ManifestManager{
		fs:           fs,
		outputRoot:   outputRoot,
		manifestPath: path.Join(outputRoot, ManifestName),
	}
}

func (mm *ManifestManager) Path() string {
	return mm.manifestPath
}

// LoadManifest returns the stored manifest, or an empty one when none
// exists. exists reports which case applied.
func (mm *ManifestManager) LoadManifest() (manifest *Manifest, exists bool, err error) {
	data, err := util.ReadFile(mm.fs, mm.manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mm.NewManifest(), false, nil
		}
		return nil, false, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, true, fmt.Errorf("failed to decode manifest %s: %w", mm.manifestPath, err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	return &m, true, nil
}

func (mm *ManifestManager) SaveManifest(manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	w := write.NewBaseWriter(mm.fs)
	opts := write.WriteOptions{CreateDirs: true, Overwrite: true, Atomic: true}
	if err := w.Write(mm.manifestPath, append(data, '\n'), opts); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func (mm *ManifestManager) NewManifest() *Manifest {
	return &Manifest{
		Version:    "1",
		Generated:  time.Now(),
		OutputRoot: mm.outputRoot,
		Entries:    make(map[string]ManifestEntry),
	}
}

// AddEntry records outputPath, which must lie under the output root.
func (mm *ManifestManager) AddEntry(manifest *Manifest, outputPath, sourcePath string, content []byte) error {
	rel, ok := mm.rel(outputPath)
	if !ok {
		return fmt.Errorf("%s is outside output root %s", outputPath, mm.outputRoot)
	}

	sum := sha256.Sum256(content)
	manifest.Entries[rel] = ManifestEntry{
		Path:   rel,
		Source: sourcePath,
		Hash:   hex.EncodeToString(sum[:]),
		Size:   int64(len(content)),
	}
	manifest.Generated = time.Now()
	return nil
}

// ListEntries returns the entries sorted by path.
func (mm *ManifestManager) ListEntries(manifest *Manifest) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(manifest.Entries))
	for _, entry := range manifest.Entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// HasChanged reports whether the file at rel differs from its entry.
func (mm *ManifestManager) HasChanged(manifest *Manifest, rel string) (bool, error) {
	entry, ok := manifest.Entries[rel]
	if !ok {
		return true, nil
	}

	data, err := util.ReadFile(mm.fs, path.Join(mm.outputRoot, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) != entry.Hash, nil
}

func (mm *ManifestManager) rel(outputPath string) (string, bool) {
	p := path.Clean(outputPath)
	if mm.outputRoot == "." {
		return p, !strings.HasPrefix(p, "../") && p != ".."
	}
	rel, found := strings.CutPrefix(p, strings.TrimSuffix(mm.outputRoot, "/")+"/")
	return rel, found && rel != ""
}
