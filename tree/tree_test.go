package tree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() *Tree {
	return FromPairs(
		"title", "Hello",
		"nav", FromPairs(
			"home", "Home",
			"about", "About",
			"menu", FromPairs("open", "Open"),
		),
		"footer", FromPairs("copyright", "Copyright"),
	)
}

// ---------------------------------------------------------------------------
// Flatten
// ---------------------------------------------------------------------------

func TestFlatten_PreOrder(t *testing.T) {
	fm, err := Flatten(sampleTree())
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}

	want := []Entry{
		{Path: "title", Value: "Hello"},
		{Path: "nav.home", Value: "Home"},
		{Path: "nav.about", Value: "About"},
		{Path: "nav.menu.open", Value: "Open"},
		{Path: "footer.copyright", Value: "Copyright"},
	}
	if diff := cmp.Diff(want, fm.Entries()); diff != "" {
		t.Fatalf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_EmptySubtreeProducesNothing(t *testing.T) {
	tr := FromPairs("a", New(), "b", "B")
	fm, err := Flatten(tr)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	if got := fm.Paths(); !cmp.Equal(got, []string{"b"}) {
		t.Fatalf("Paths() = %v, want [b]", got)
	}
}

func TestFlatten_KeyWithSeparatorFails(t *testing.T) {
	tr := FromPairs("nav", FromPairs("v1.2", "Release"))

	_, err := Flatten(tr)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("Flatten() error = %v, want *ConflictError", err)
	}
	if ce.Reason != ReasonSeparator || ce.Path != "nav.v1.2" {
		t.Fatalf("ConflictError = %+v, want separator at nav.v1.2", ce)
	}
}

func TestFlatten_EmptyKeyKeepsItsSegment(t *testing.T) {
	src := FromPairs("", FromPairs("b", "nested"), "b", "top")

	fm, err := Flatten(src)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	want := []Entry{
		{Path: ".b", Value: "nested"},
		{Path: "b", Value: "top"},
	}
	if diff := cmp.Diff(want, fm.Entries()); diff != "" {
		t.Fatalf("Flatten() mismatch (-want +got):\n%s", diff)
	}

	back, err := Unflatten(fm)
	if err != nil {
		t.Fatalf("Unflatten() error: %v", err)
	}
	if !back.Equal(src) {
		t.Fatal("Unflatten(Flatten(t)) is not equal to t for an empty key")
	}
}

func TestFlattenSep_CustomSeparator(t *testing.T) {
	tr := FromPairs("nav", FromPairs("v1.2", "Release"))
	fm, err := FlattenSep(tr, "/")
	if err != nil {
		t.Fatalf("FlattenSep() error: %v", err)
	}
	if v, ok := fm.Get("nav/v1.2"); !ok || v != "Release" {
		t.Fatalf("Get(nav/v1.2) = %q, %v", v, ok)
	}

	back, err := UnflattenSep(fm, "/")
	if err != nil {
		t.Fatalf("UnflattenSep() error: %v", err)
	}
	if !back.Equal(tr) {
		t.Fatal("custom separator round trip lost structure")
	}
}

// ---------------------------------------------------------------------------
// Unflatten
// ---------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	orig := sampleTree()
	fm, err := Flatten(orig)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	back, err := Unflatten(fm)
	if err != nil {
		t.Fatalf("Unflatten() error: %v", err)
	}
	if !back.Equal(orig) {
		t.Fatalf("round trip mismatch: keys %v vs %v", back.Keys(), orig.Keys())
	}
}

func TestUnflatten_Conflicts(t *testing.T) {
	tests := []struct {
		name   string
		fm     *FlatMap
		path   string
		reason string
	}{
		{
			name:   "scalar then nested",
			fm:     FlatMapOf(Entry{"a.b", "x"}, Entry{"a.b.c", "y"}),
			path:   "a.b",
			reason: ReasonScalar,
		},
		{
			name:   "nested then scalar",
			fm:     FlatMapOf(Entry{"a.b.c", "y"}, Entry{"a.b", "x"}),
			path:   "a.b",
			reason: ReasonNode,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Unflatten(tc.fm)
			if got != nil {
				t.Fatal("Unflatten() returned a partial tree")
			}
			var ce *ConflictError
			if !errors.As(err, &ce) {
				t.Fatalf("Unflatten() error = %v, want *ConflictError", err)
			}
			if ce.Path != tc.path || ce.Reason != tc.reason {
				t.Fatalf("ConflictError = %+v, want path=%q reason=%q", ce, tc.path, tc.reason)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tree helpers
// ---------------------------------------------------------------------------

func TestCloneIsDeep(t *testing.T) {
	orig := sampleTree()
	c := orig.Clone()
	if err := c.Set([]string{"nav", "home"}, "Start", Separator); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	v, _ := orig.Lookup("nav", "home")
	if v.Text != "Home" {
		t.Fatalf("original mutated: nav.home = %q", v.Text)
	}
	if orig.Equal(c) {
		t.Fatal("Equal() = true after modifying clone")
	}
}

func TestPutKeepsPosition(t *testing.T) {
	tr := FromPairs("a", "1", "b", "2")
	tr.PutLeaf("a", "3")
	tr.PutLeaf("c", "4")

	if got := tr.Keys(); !cmp.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("Keys() = %v, want [a b c]", got)
	}
	if v, _ := tr.Get("a"); v.Text != "3" {
		t.Fatalf("a = %q, want 3", v.Text)
	}
}

func TestEqualDistinguishesOrder(t *testing.T) {
	a := FromPairs("x", "1", "y", "2")
	b := FromPairs("y", "2", "x", "1")
	if a.Equal(b) {
		t.Fatal("Equal() ignored key order")
	}
}
