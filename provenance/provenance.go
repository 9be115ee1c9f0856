// Package provenance resolves paths into the archive tree of summary entries.
package provenance

import (
	"errors"

	"github.com/youssefsiam38/inlinesummary/types"
)

// ErrNotFound is returned when a path does not address an archived entry.
var ErrNotFound = errors.New("entry not found")

// Path addresses an entry: the first index selects a summary in the live
// sequence, each later index selects an entry of the current archive.
type Path []int

// GetByPath resolves path against entries. The entry addressed by path[0]
// must be a summary, and so must every entry the path descends through.
// The returned pointer aliases entries and must not be modified.
func GetByPath(entries []types.Entry, path Path) (*types.Entry, error) {
	if len(path) == 0 {
		return nil, ErrNotFound
	}

	current, ok := at(entries, path[0])
	if !ok || !current.IsSummary() {
		return nil, ErrNotFound
	}

	for _, index := range path[1:] {
		if !current.IsSummary() {
			return nil, ErrNotFound
		}
		current, ok = at(current.Archive, index)
		if !ok {
			return nil, ErrNotFound
		}
	}
	return current, nil
}

// Parent returns the path of the entry containing path, and false for a
// top-level path.
func (p Path) Parent() (Path, bool) {
	if len(p) <= 1 {
		return nil, false
	}
	return p[:len(p)-1 : len(p)-1], true
}

// Child returns the path of the index-th archived entry below p.
func (p Path) Child(index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, index)
}

func at(entries []types.Entry, index int) (*types.Entry, bool) {
	if index < 0 || index >= len(entries) {
		return nil, false
	}
	return &entries[index], true
}
