// Package index persists test outcomes. The cache index is a single JSON
// file mapping test name to last-known outcome; an optional sqlite history
// keeps every run.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Entry is the last-known outcome of one named test.
type Entry struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Ticks      uint64 `json:"ticks"`
	UpdatedAt  string `json:"updated_at"`
}

// Index is the in-memory name→outcome mapping. Last write wins.
type Index struct {
	path    string
	entries map[string]Entry
}

// Load reads the index at path. A missing or corrupt file is never fatal
// and yields an empty index.
func Load(path string) *Index {
	ix := &Index{path: path, entries: map[string]Entry{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ix
	}
	var entries map[string]Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return ix
	}
	ix.entries = entries
	return ix
}

func (ix *Index) Put(name string, e Entry) {
	if e.UpdatedAt == "" {
		e.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	ix.entries[name] = e
}

func (ix *Index) Get(name string) (Entry, bool) {
	e, ok := ix.entries[name]
	return e, ok
}

func (ix *Index) Len() int { return len(ix.entries) }

func (ix *Index) Names() []string {
	out := make([]string, 0, len(ix.entries))
	for name := range ix.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Save writes the full index atomically: temp file in the same directory,
// then rename. The on-disk file never holds a partial run.
func (ix *Index) Save() error {
	dir := filepath.Dir(ix.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index dir: %w", err)
	}
	b, err := json.MarshalIndent(ix.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("index encode: %w", err)
	}
	tmp := ix.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("index write: %w", err)
	}
	if err := os.Rename(tmp, ix.path); err != nil {
		return fmt.Errorf("index rename: %w", err)
	}
	return nil
}
