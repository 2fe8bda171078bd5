// Package merge folds translated entries back into a target catalog.
package merge

import (
	"strings"

	"github.com/minios-linux/locdiff/tree"
)

// Merge rebuilds result into a tree and deep-merges it into a copy of
// target.
//   - Paths that exist in target are overwritten in place, keeping their position.
//   - New paths are appended to the end of their level, creating groups as needed.
//   - Keys of target not named by result are left untouched.
//   - A path that needs a group where target has a string (or the reverse)
//     fails with *tree.ConflictError and no tree is returned.
//
// target itself is never modified.
func Merge(target *tree.Tree, result *tree.FlatMap) (*tree.Tree, error) {
	return MergeSep(target, result, tree.Separator)
}

// MergeSep is Merge with a custom path separator.
func MergeSep(target *tree.Tree, result *tree.FlatMap, sep string) (*tree.Tree, error) {
	incoming, err := tree.UnflattenSep(result, sep)
	if err != nil {
		return nil, err
	}

	out := target.Clone()
	if err := mergeInto(out, incoming, nil, sep); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeInto copies every leaf of src into dst, recursing into groups.
func mergeInto(dst, src *tree.Tree, prefix []string, sep string) error {
	for _, key := range src.Keys() {
		sv, _ := src.Get(key)
		path := append(prefix[:len(prefix):len(prefix)], key)

		if sv.IsLeaf() {
			if err := dst.Set([]string{key}, sv.Text, sep); err != nil {
				return relocate(err, path, sep)
			}
			continue
		}

		dv, ok := dst.Get(key)
		if ok && dv.IsLeaf() {
			return &tree.ConflictError{Path: joinPath(path, sep), Reason: tree.ReasonScalar}
		}
		if err := mergeInto(dst.Child(key), sv.Tree, path, sep); err != nil {
			return err
		}
	}
	return nil
}

// relocate rewrites a conflict reported relative to one level so it names
// the full path.
func relocate(err error, path []string, sep string) error {
	if ce, ok := err.(*tree.ConflictError); ok {
		return &tree.ConflictError{Path: joinPath(path, sep), Reason: ce.Reason}
	}
	return err
}

func joinPath(segments []string, sep string) string {
	return strings.Join(segments, sep)
}
