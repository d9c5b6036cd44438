package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report summarizes one build.
type Report struct {
	ID       uuid.UUID     `json:"id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Files    []FileResult  `json:"files"`
}

// FileResult describes one successfully written output.
type FileResult struct {
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// Bytes is the total size of all written outputs.
func (r *Report) Bytes() int {
	total := 0
	for _, f := range r.Files {
		total += f.Bytes
	}
	return total
}

// Outputs lists the written output paths in input order.
func (r *Report) Outputs() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Output
	}
	return out
}

func (r *Report) finish() {
	r.Duration = time.Since(r.Started)
	sort.Slice(r.Files, func(i, j int) bool {
		return r.Files[i].Input < r.Files[j].Input
	})
}
