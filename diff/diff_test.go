package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/minios-linux/locdiff/tree"
)

func flat(t *testing.T, tr *tree.Tree) *tree.FlatMap {
	t.Helper()
	fm, err := tree.Flatten(tr)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	return fm
}

func TestDiff_MissingKey(t *testing.T) {
	src := flat(t, tree.FromPairs("a", tree.FromPairs("b", "Hello", "c", "Bye")))
	tgt := flat(t, tree.FromPairs("a", tree.FromPairs("b", "Bonjour")))

	got := Diff(src, tgt)
	want := []tree.Entry{{Path: "a.c", Value: "Bye"}}
	if d := cmp.Diff(want, got.Entries()); d != "" {
		t.Fatalf("Diff() mismatch (-want +got):\n%s", d)
	}
	if got.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Len())
	}
}

func TestDiff_PreservesSourceOrder(t *testing.T) {
	src := tree.FlatMapOf(
		tree.Entry{Path: "z", Value: "1"},
		tree.Entry{Path: "a", Value: "2"},
		tree.Entry{Path: "m", Value: "3"},
		tree.Entry{Path: "b", Value: "4"},
	)
	tgt := tree.FlatMapOf(tree.Entry{Path: "a", Value: "x"})

	got := Diff(src, tgt).Paths()
	if want := []string{"z", "m", "b"}; !cmp.Equal(got, want) {
		t.Fatalf("Diff() paths = %v, want %v", got, want)
	}
}

func TestDiff_PresenceIgnoresTargetValue(t *testing.T) {
	src := tree.FlatMapOf(
		tree.Entry{Path: "same", Value: "Hello"},
		tree.Entry{Path: "empty", Value: "Bye"},
	)
	tgt := tree.FlatMapOf(
		tree.Entry{Path: "same", Value: "Hello"},
		tree.Entry{Path: "empty", Value: ""},
	)

	if got := Diff(src, tgt); got.Len() != 0 {
		t.Fatalf("Diff() = %v, want empty", got.Paths())
	}
}

func TestDiff_EmptyTarget(t *testing.T) {
	src := tree.FlatMapOf(tree.Entry{Path: "a", Value: "A"}, tree.Entry{Path: "b", Value: "B"})
	got := Diff(src, tree.NewFlatMap())
	if !got.Equal(src) {
		t.Fatalf("Diff() against empty target = %v, want all source entries", got.Paths())
	}
}

func TestDiffWith_Strategies(t *testing.T) {
	src := tree.FlatMapOf(
		tree.Entry{Path: "absent", Value: "A"},
		tree.Entry{Path: "empty", Value: "B"},
		tree.Entry{Path: "copied", Value: "C"},
		tree.Entry{Path: "done", Value: "D"},
	)
	tgt := tree.FlatMapOf(
		tree.Entry{Path: "empty", Value: ""},
		tree.Entry{Path: "copied", Value: "C"},
		tree.Entry{Path: "done", Value: "Dé"},
	)

	tests := []struct {
		name string
		want []string
	}{
		{name: StrategyPresence, want: []string{"absent"}},
		{name: StrategyEmpty, want: []string{"absent", "empty"}},
		{name: StrategyIdentical, want: []string{"absent", "empty", "copied"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseStrategy(tc.name)
			if err != nil {
				t.Fatalf("ParseStrategy(%q) error: %v", tc.name, err)
			}
			if got := DiffWith(src, tgt, s).Paths(); !cmp.Equal(got, tc.want) {
				t.Fatalf("DiffWith(%s) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestParseStrategy_Unknown(t *testing.T) {
	if _, err := ParseStrategy("fuzzy"); err == nil {
		t.Fatal("ParseStrategy(fuzzy) error = nil, want error")
	}
}
