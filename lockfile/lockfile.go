// Package lockfile implements locdiff.lock, which records an MD5 checksum
// of every source string at the time it was translated into each target
// locale. A key whose source text changed since then is stale and can be
// sent for translation again even though the target already has it.
//
// The lock file is stored in the catalog directory.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locdiff/diff"
	"github.com/minios-linux/locdiff/tree"
)

// LockFileName is the default lock file name.
const LockFileName = "locdiff.lock"

// Version is the lock file format version.
const Version = 1

// LockFile represents the locdiff.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // locale -> path -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// IsStale reports whether the source text of path changed since it was
// last translated into locale. Paths without a record are not stale.
func (lf *LockFile) IsStale(locale, path, sourceValue string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[locale][path]
	return ok && old != Hash(sourceValue)
}

// Record stores the checksum of every source value whose path appears in
// translated. Safe for concurrent use by parallel pipelines.
func (lf *LockFile) Record(locale string, source, translated *tree.FlatMap) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[locale] == nil {
		lf.Checksums[locale] = make(map[string]string)
	}
	for _, path := range translated.Paths() {
		if v, ok := source.Get(path); ok {
			lf.Checksums[locale][path] = Hash(v)
		}
	}
}

// Clean drops records for paths that are no longer in the source catalog.
func (lf *LockFile) Clean(locale string, source *tree.FlatMap) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	for path := range lf.Checksums[locale] {
		if !source.Has(path) {
			delete(lf.Checksums[locale], path)
		}
	}
}

// Locales returns the sorted list of locales with records.
func (lf *LockFile) Locales() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales := make([]string, 0, len(lf.Checksums))
	for l := range lf.Checksums {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// Strategy returns a diff strategy for locale that reports absent keys and
// keys whose source text changed since their last translation.
func (lf *LockFile) Strategy(locale string) diff.Strategy {
	return diff.StrategyFunc(func(path, src, _ string, present bool) bool {
		return !present || lf.IsStale(locale, path, src)
	})
}
