// Package localefile reads and writes locale catalogs on disk as
// tree.Tree values, preserving key order.
//
// A catalog directory holds one file per locale:
//
//	lang/
//	    en.json
//	    fr.json
//
// JSON, YAML and .properties are supported. Non-string scalars are kept as
// their literal text (null becomes ""), and arrays become groups keyed by
// index.
package localefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/locdiff/tree"
)

// Supported formats.
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatProperties = "properties"
)

// Formats lists the format names accepted by Store.
var Formats = []string{FormatJSON, FormatYAML, FormatProperties}

// Store loads and saves the catalogs of one directory.
type Store struct {
	// Dir is the catalog directory.
	Dir string
	// Format is "json", "yaml" or "properties". Empty means detect per
	// locale from the files present, falling back to JSON.
	Format string

	// newExt is the extension for catalogs that do not exist yet, set by
	// Follow.
	newExt string
}

// Follow makes new catalogs use the same file extension as the existing
// catalog of locale, so targets created next to en.yml become fr.yml.
// Existing catalogs keep their own format. It does nothing when locale has
// no catalog.
func (s *Store) Follow(locale string) {
	if s.Exists(locale) {
		s.newExt = filepath.Ext(s.Path(locale))
	}
}

// extensions returns candidate file extensions for a format.
func extensions(format string) []string {
	switch format {
	case FormatJSON:
		return []string{".json"}
	case FormatYAML:
		return []string{".yaml", ".yml"}
	case FormatProperties:
		return []string{".properties"}
	}
	return []string{".json", ".yaml", ".yml", ".properties"}
}

// Path returns the file path for a locale. An existing file wins; otherwise
// the extension chosen by Follow, or the first extension of the configured
// format, is used.
func (s *Store) Path(locale string) string {
	for _, ext := range extensions(s.Format) {
		p := filepath.Join(s.Dir, locale+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	if s.newExt != "" {
		return filepath.Join(s.Dir, locale+s.newExt)
	}
	ext := ".json"
	switch s.Format {
	case FormatYAML:
		ext = ".yaml"
	case FormatProperties:
		ext = ".properties"
	}
	return filepath.Join(s.Dir, locale+ext)
}

// Exists reports whether a catalog file exists for locale.
func (s *Store) Exists(locale string) bool {
	info, err := os.Stat(s.Path(locale))
	return err == nil && !info.IsDir()
}

// Load reads the catalog for locale.
func (s *Store) Load(locale string) (*tree.Tree, error) {
	return ParseFile(s.Path(locale))
}

// LoadOrEmpty reads the catalog for locale, returning an empty tree when
// the file does not exist yet.
func (s *Store) LoadOrEmpty(locale string) (*tree.Tree, error) {
	if !s.Exists(locale) {
		return tree.New(), nil
	}
	return s.Load(locale)
}

// Save writes t as the catalog for locale.
func (s *Store) Save(locale string, t *tree.Tree) error {
	return WriteFile(s.Path(locale), t)
}

// Locales returns the locale codes that have a catalog in the directory.
func (s *Store) Locales() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Dir, err)
	}

	seen := make(map[string]bool)
	var locales []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range extensions(s.Format) {
			if strings.HasSuffix(name, ext) {
				locale := strings.TrimSuffix(name, ext)
				if !seen[locale] {
					seen[locale] = true
					locales = append(locales, locale)
				}
			}
		}
	}
	return locales, nil
}

// formatOf returns the format implied by a file extension.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".properties":
		return FormatProperties
	}
	return FormatJSON
}

// ParseFile reads a catalog file, choosing the format from its extension.
func ParseFile(path string) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var t *tree.Tree
	switch formatOf(path) {
	case FormatYAML:
		t, err = ParseYAML(data)
	case FormatProperties:
		t, err = ParseProperties(data)
	default:
		t, err = ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile serialises t in the format implied by path and writes it.
func WriteFile(path string, t *tree.Tree) error {
	var data []byte
	var err error
	switch formatOf(path) {
	case FormatYAML:
		data, err = MarshalYAML(t)
	case FormatProperties:
		data, err = MarshalProperties(t)
	default:
		data, err = MarshalJSON(t)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
