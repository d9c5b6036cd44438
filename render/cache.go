package render

import (
	"crypto/sha256"
	htmltemplate "html/template"
	"sync"
)

// layoutCache holds parsed layouts by path. An entry is reused only while
// the layout's content hash is unchanged, so edits are picked up by a
// long-running server without reparsing untouched layouts on every page.
type layoutCache struct {
	mu      sync.RWMutex
	entries map[string]layoutEntry
}

type layoutEntry struct {
	sum  [sha256.Size]byte
	tmpl *htmltemplate.Template
}

func newLayoutCache() *layoutCache {
	return &layoutCache{entries: make(map[string]layoutEntry)}
}

// get returns the template for name, calling parse when content differs
// from what was cached.
func (c *layoutCache) get(name string, content []byte, parse func() (*htmltemplate.Template, error)) (*htmltemplate.Template, error) {
	sum := sha256.Sum256(content)

	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()
	if ok && entry.sum == sum {
		return entry.tmpl, nil
	}

	tmpl, err := parse()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[name] = layoutEntry{sum: sum, tmpl: tmpl}
	c.mu.Unlock()
	return tmpl, nil
}

func (c *layoutCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
