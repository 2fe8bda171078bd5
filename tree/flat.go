package tree

import (
	"fmt"
	"strings"
)

// Entry is one flattened leaf.
type Entry struct {
	// Path is the separator-joined key path (e.g. "nav.home").
	Path string
	// Value is the leaf text.
	Value string
}

// FlatMap is an ordered mapping from path to value.
type FlatMap struct {
	entries []Entry
	// index maps path → position in entries.
	index map[string]int
}

// NewFlatMap returns an empty FlatMap.
func NewFlatMap() *FlatMap {
	return &FlatMap{index: make(map[string]int)}
}

// FlatMapOf builds a FlatMap from entries. Later duplicates overwrite the
// value of the first occurrence and keep its position.
func FlatMapOf(entries ...Entry) *FlatMap {
	fm := NewFlatMap()
	for _, e := range entries {
		fm.Set(e.Path, e.Value)
	}
	return fm
}

// Len returns the number of entries.
func (fm *FlatMap) Len() int {
	return len(fm.entries)
}

// Entries returns a copy of the entries in order.
func (fm *FlatMap) Entries() []Entry {
	out := make([]Entry, len(fm.entries))
	copy(out, fm.entries)
	return out
}

// Paths returns all paths in order.
func (fm *FlatMap) Paths() []string {
	out := make([]string, len(fm.entries))
	for i, e := range fm.entries {
		out[i] = e.Path
	}
	return out
}

// Values returns all values in order.
func (fm *FlatMap) Values() []string {
	out := make([]string, len(fm.entries))
	for i, e := range fm.entries {
		out[i] = e.Value
	}
	return out
}

// Get returns the value for path.
func (fm *FlatMap) Get(path string) (string, bool) {
	idx, ok := fm.index[path]
	if !ok {
		return "", false
	}
	return fm.entries[idx].Value, true
}

// Has reports whether path is present.
func (fm *FlatMap) Has(path string) bool {
	_, ok := fm.index[path]
	return ok
}

// Set appends path or overwrites its value in place.
func (fm *FlatMap) Set(path, value string) {
	if idx, ok := fm.index[path]; ok {
		fm.entries[idx].Value = value
		return
	}
	fm.index[path] = len(fm.entries)
	fm.entries = append(fm.entries, Entry{Path: path, Value: value})
}

// Equal reports whether both maps hold the same entries in the same order.
func (fm *FlatMap) Equal(o *FlatMap) bool {
	if len(fm.entries) != len(o.entries) {
		return false
	}
	for i, e := range fm.entries {
		if o.entries[i] != e {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Flatten / Unflatten
// ---------------------------------------------------------------------------

// Flatten converts t into a FlatMap using the default separator.
func Flatten(t *Tree) (*FlatMap, error) {
	return FlattenSep(t, Separator)
}

// FlattenSep converts t into a FlatMap joining keys with sep.
// A key containing sep would not survive a round trip, so it is rejected
// with a *ConflictError.
func FlattenSep(t *Tree, sep string) (*FlatMap, error) {
	fm := NewFlatMap()
	if err := flattenInto(fm, t, "", true, sep); err != nil {
		return nil, err
	}
	return fm, nil
}

// flattenInto walks t in pre-order. root, not an empty prefix, marks the
// top level: "" is a legal key and still takes its own path segment.
func flattenInto(fm *FlatMap, t *Tree, prefix string, root bool, sep string) error {
	for _, key := range t.keys {
		path := key
		if !root {
			path = prefix + sep + key
		}
		if strings.Contains(key, sep) {
			return &ConflictError{Path: path, Reason: ReasonSeparator}
		}

		v := t.items[key]
		if !v.IsLeaf() {
			if err := flattenInto(fm, v.Tree, path, false, sep); err != nil {
				return err
			}
			continue
		}
		fm.Set(path, v.Text)
	}
	return nil
}

// Unflatten rebuilds a tree from fm using the default separator.
func Unflatten(fm *FlatMap) (*Tree, error) {
	return UnflattenSep(fm, Separator)
}

// UnflattenSep rebuilds a tree from fm splitting paths on sep. It fails
// with a *ConflictError when one path needs a leaf where another needs a
// subtree (e.g. both "a.b" and "a.b.c").
func UnflattenSep(fm *FlatMap, sep string) (*Tree, error) {
	t := New()
	for _, e := range fm.entries {
		if err := t.Set(SplitPath(e.Path, sep), e.Value, sep); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SplitPath splits path into its key segments.
func SplitPath(path, sep string) []string {
	return strings.Split(path, sep)
}

func joinPath(segments []string, sep string) string {
	return strings.Join(segments, sep)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// Conflict reasons.
const (
	// ReasonScalar: a leaf would have to act as an intermediate node.
	ReasonScalar = "scalar"
	// ReasonNode: a subtree would be replaced by a leaf.
	ReasonNode = "node"
	// ReasonSeparator: a key contains the path separator.
	ReasonSeparator = "separator"
)

// ConflictError reports a path that cannot be placed in a tree without
// losing structure.
type ConflictError struct {
	Path   string
	Reason string
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonScalar:
		return fmt.Sprintf("conflict at %q: value is a string, cannot nest keys under it", e.Path)
	case ReasonNode:
		return fmt.Sprintf("conflict at %q: value is a nested group, cannot replace it with a string", e.Path)
	case ReasonSeparator:
		return fmt.Sprintf("conflict at %q: key contains the path separator", e.Path)
	}
	return fmt.Sprintf("conflict at %q", e.Path)
}
