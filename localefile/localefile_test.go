package localefile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/minios-linux/locdiff/tree"
)

func flatEntries(t *testing.T, tr *tree.Tree) []tree.Entry {
	t.Helper()
	fm, err := tree.Flatten(tr)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	return fm.Entries()
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func TestParseJSON_PreservesOrderAndNesting(t *testing.T) {
	data := []byte(`{
    "zeta": "Z",
    "auth": {"failed": "These credentials do not match.", "throttle": "Too many attempts."},
    "alpha": "A"
}`)
	tr, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}

	want := []tree.Entry{
		{Path: "zeta", Value: "Z"},
		{Path: "auth.failed", Value: "These credentials do not match."},
		{Path: "auth.throttle", Value: "Too many attempts."},
		{Path: "alpha", Value: "A"},
	}
	if d := cmp.Diff(want, flatEntries(t, tr)); d != "" {
		t.Fatalf("ParseJSON() mismatch (-want +got):\n%s", d)
	}
}

func TestParseJSON_NonStringValues(t *testing.T) {
	tr, err := ParseJSON([]byte(`{"n": 3.5, "b": true, "z": null, "list": ["x", "y"]}`))
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	want := []tree.Entry{
		{Path: "n", Value: "3.5"},
		{Path: "b", Value: "true"},
		{Path: "z", Value: ""},
		{Path: "list.0", Value: "x"},
		{Path: "list.1", Value: "y"},
	}
	if d := cmp.Diff(want, flatEntries(t, tr)); d != "" {
		t.Fatalf("ParseJSON() mismatch (-want +got):\n%s", d)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	for _, in := range []string{`["a"]`, `{"a": }`, `{"a": "b"} {}`} {
		if _, err := ParseJSON([]byte(in)); err == nil {
			t.Fatalf("ParseJSON(%q) error = nil", in)
		}
	}
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	orig := tree.FromPairs(
		"greeting", "Hello <b>:name</b>",
		"nav", tree.FromPairs("home", "Home", "quote", `Say "hi"`),
		"empty", tree.New(),
	)
	data, err := MarshalJSON(orig)
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if !strings.Contains(string(data), `"greeting": "Hello <b>:name</b>"`) {
		t.Fatalf("MarshalJSON() escaped HTML or lost indentation:\n%s", data)
	}
	if !strings.Contains(string(data), `"empty": {}`) {
		t.Fatalf("MarshalJSON() empty group:\n%s", data)
	}

	back, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	if !back.Equal(orig) {
		t.Fatalf("JSON round trip mismatch:\n%s", data)
	}
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

func TestParseYAML_Nested(t *testing.T) {
	data := []byte(`nav:
  home: Home
  about: About
count: 42
nothing: ~
footer:
  copyright: Copyright
`)
	tr, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error: %v", err)
	}
	want := []tree.Entry{
		{Path: "nav.home", Value: "Home"},
		{Path: "nav.about", Value: "About"},
		{Path: "count", Value: "42"},
		{Path: "nothing", Value: ""},
		{Path: "footer.copyright", Value: "Copyright"},
	}
	if d := cmp.Diff(want, flatEntries(t, tr)); d != "" {
		t.Fatalf("ParseYAML() mismatch (-want +got):\n%s", d)
	}
}

func TestParseYAML_EmptyAndInvalidRoot(t *testing.T) {
	tr, err := ParseYAML([]byte(""))
	if err != nil || tr.Len() != 0 {
		t.Fatalf("ParseYAML(empty) = %v, %v", tr, err)
	}
	if _, err := ParseYAML([]byte("- a\n- b\n")); err == nil {
		t.Fatal("ParseYAML(sequence root) error = nil")
	}
}

func TestMarshalYAML_RoundTripKeepsStrings(t *testing.T) {
	orig := tree.FromPairs(
		"enabled", "true",
		"nav", tree.FromPairs("home", "Home", "blank", ""),
	)
	data, err := MarshalYAML(orig)
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	back, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error: %v", err)
	}
	if !back.Equal(orig) {
		t.Fatalf("YAML round trip mismatch:\n%s", data)
	}
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

func TestStore_LoadSaveAndLocales(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"a": {"b": "Hello"}}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "de.yml"), []byte("a:\n  b: Hallo\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := &Store{Dir: dir}
	en, err := s.Load("en")
	if err != nil {
		t.Fatalf("Load(en) error: %v", err)
	}
	if v, _ := en.Lookup("a", "b"); v.Text != "Hello" {
		t.Fatalf("en a.b = %q", v.Text)
	}
	de, err := s.Load("de")
	if err != nil {
		t.Fatalf("Load(de) error: %v", err)
	}
	if v, _ := de.Lookup("a", "b"); v.Text != "Hallo" {
		t.Fatalf("de a.b = %q", v.Text)
	}

	fr, err := s.LoadOrEmpty("fr")
	if err != nil || fr.Len() != 0 {
		t.Fatalf("LoadOrEmpty(fr) = %v, %v", fr, err)
	}
	if err := s.Save("fr", tree.FromPairs("a", tree.FromPairs("b", "Bonjour"))); err != nil {
		t.Fatalf("Save(fr) error: %v", err)
	}
	if got := s.Path("fr"); got != filepath.Join(dir, "fr.json") {
		t.Fatalf("Path(fr) = %q", got)
	}

	locales, err := s.Locales()
	if err != nil {
		t.Fatalf("Locales() error: %v", err)
	}
	sort.Strings(locales)
	if want := []string{"de", "en", "fr"}; !cmp.Equal(locales, want) {
		t.Fatalf("Locales() = %v, want %v", locales, want)
	}
}

func TestStore_YAMLFormatPath(t *testing.T) {
	s := &Store{Dir: "/tmp/none", Format: FormatYAML}
	if got := s.Path("fr"); got != filepath.Join("/tmp/none", "fr.yaml") {
		t.Fatalf("Path(fr) = %q", got)
	}
}

func TestStore_FollowUsesSourceExtension(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{source: "en.yaml", want: "fr.yaml"},
		{source: "en.yml", want: "fr.yml"},
		{source: "en.properties", want: "fr.properties"},
		{source: "en.json", want: "fr.json"},
	}

	for _, tc := range tests {
		t.Run(tc.source, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tc.source), []byte(""), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			s := &Store{Dir: dir}
			s.Follow("en")
			if got := s.Path("fr"); got != filepath.Join(dir, tc.want) {
				t.Fatalf("Path(fr) = %q, want %q", got, filepath.Join(dir, tc.want))
			}
		})
	}

	t.Run("existing target keeps its format", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"en.yaml", "de.json"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(""), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
		}
		s := &Store{Dir: dir}
		s.Follow("en")
		if got := s.Path("de"); got != filepath.Join(dir, "de.json") {
			t.Fatalf("Path(de) = %q", got)
		}
	})

	t.Run("missing source keeps default", func(t *testing.T) {
		dir := t.TempDir()
		s := &Store{Dir: dir}
		s.Follow("en")
		if got := s.Path("fr"); got != filepath.Join(dir, "fr.json") {
			t.Fatalf("Path(fr) = %q", got)
		}
	})
}
