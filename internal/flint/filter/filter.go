// Package filter selects test specs by name, glob pattern and tags.
package filter

import (
	"fmt"
	"path"
)

// Filter is the run-wide selection policy. Exact is the narrowest filter
// and short-circuits the others; otherwise Pattern and Tags both narrow the
// candidate set. A zero Filter selects everything.
type Filter struct {
	Exact   string
	Pattern string
	Tags    []string
}

func (f Filter) Empty() bool {
	return f.Exact == "" && f.Pattern == "" && len(f.Tags) == 0
}

// Validate rejects malformed glob patterns up front, before any test runs.
func (f Filter) Validate() error {
	if f.Pattern == "" {
		return nil
	}
	if _, err := path.Match(f.Pattern, "probe"); err != nil {
		return fmt.Errorf("pattern %q: %w", f.Pattern, err)
	}
	return nil
}

// Matches reports whether a spec with the given name and tags is selected.
func (f Filter) Matches(name string, tags []string) bool {
	if f.Exact != "" {
		return name == f.Exact
	}
	if f.Pattern != "" {
		ok, err := path.Match(f.Pattern, name)
		if err != nil || !ok {
			return false
		}
	}
	if len(f.Tags) > 0 && !anyTag(tags, f.Tags) {
		return false
	}
	return true
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
