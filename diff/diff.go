// Package diff computes the keys of a source catalog that the target
// catalog does not translate yet.
package diff

import (
	"fmt"

	"github.com/minios-linux/locdiff/tree"
)

// Strategy decides whether a source entry still needs translation.
// targetValue and present describe the target side of the same path.
type Strategy interface {
	Untranslated(path, sourceValue, targetValue string, present bool) bool
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(path, sourceValue, targetValue string, present bool) bool

// Untranslated calls f.
func (f StrategyFunc) Untranslated(path, sourceValue, targetValue string, present bool) bool {
	return f(path, sourceValue, targetValue, present)
}

// Built-in strategies.
var (
	// Presence treats only absent keys as untranslated.
	Presence Strategy = StrategyFunc(func(_, _, _ string, present bool) bool {
		return !present
	})
	// Empty also treats keys with an empty target value as untranslated.
	Empty Strategy = StrategyFunc(func(_, _, tgt string, present bool) bool {
		return !present || tgt == ""
	})
	// Identical extends Empty: keys whose target value equals the source
	// value are untranslated too.
	Identical Strategy = StrategyFunc(func(_, src, tgt string, present bool) bool {
		return !present || tgt == "" || tgt == src
	})
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyPresence  = "presence"
	StrategyEmpty     = "empty"
	StrategyIdentical = "identical"
)

// ParseStrategy returns the built-in strategy with the given name.
// An empty name selects Presence.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyPresence:
		return Presence, nil
	case StrategyEmpty:
		return Empty, nil
	case StrategyIdentical:
		return Identical, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (valid: presence, empty, identical)", name)
}

// Diff returns the source entries whose path is absent from target,
// in source order. Target values are ignored.
func Diff(source, target *tree.FlatMap) *tree.FlatMap {
	return DiffWith(source, target, Presence)
}

// DiffWith returns the source entries that s reports as untranslated,
// in source order.
func DiffWith(source, target *tree.FlatMap, s Strategy) *tree.FlatMap {
	missing := tree.NewFlatMap()
	for _, e := range source.Entries() {
		tgt, ok := target.Get(e.Path)
		if s.Untranslated(e.Path, e.Value, tgt, ok) {
			missing.Set(e.Path, e.Value)
		}
	}
	return missing
}
