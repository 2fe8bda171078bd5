// Package config loads .locdiff.yaml, the per-project configuration file.
//
//	dir: lang
//	format: json
//	source_lang: en
//	languages: [fr, de]
//	strategy: presence
//	driver: groq
//	model: llama-3.3-70b-versatile
//	timeout: 90s
//
// Every field is optional. Command-line flags override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locdiff/diff"
	"github.com/minios-linux/locdiff/langmeta"
	"github.com/minios-linux/locdiff/localefile"
	"github.com/minios-linux/locdiff/translate"
)

// FileName is the default config file name.
const FileName = ".locdiff.yaml"

// Config is the .locdiff.yaml structure.
type Config struct {
	// Dir is the catalog directory relative to the project root (default "lang").
	Dir string `yaml:"dir,omitempty"`
	// Format is "json", "yaml" or "properties" (default: detect from files).
	Format string `yaml:"format,omitempty"`
	// SourceLang is the source locale (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages are the default target locales.
	Languages []string `yaml:"languages,omitempty"`
	// Separator joins nested keys (default ".").
	Separator string `yaml:"separator,omitempty"`
	// Strategy is presence, empty, identical or stale (default presence).
	Strategy string `yaml:"strategy,omitempty"`

	// Driver is the translation driver name.
	Driver string `yaml:"driver,omitempty"`
	// Model overrides the driver's default model.
	Model string `yaml:"model,omitempty"`
	// BaseURL overrides the driver's endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// MaxRetries bounds retries on rate limits and server errors.
	MaxRetries int `yaml:"max_retries,omitempty"`
	// Prompt overrides the system prompt.
	Prompt string `yaml:"prompt,omitempty"`

	// ChunkSize splits missing keys into several dispatches (0 = one batch).
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// Parallel is how many target locales are reconciled at once (default 1).
	Parallel int `yaml:"parallel,omitempty"`
}

// StrategyStale selects the lock file based strategy.
const StrategyStale = "stale"

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Dir == "" {
		c.Dir = "lang"
	}
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if c.Separator == "" {
		c.Separator = "."
	}
	if c.Strategy == "" {
		c.Strategy = diff.StrategyPresence
	}
	if c.Parallel <= 0 {
		c.Parallel = 1
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Format != "" && !slices.Contains(localefile.Formats, c.Format) {
		return fmt.Errorf("unknown format %q (valid: %s)", c.Format, strings.Join(localefile.Formats, ", "))
	}
	if c.Strategy != StrategyStale {
		if _, err := diff.ParseStrategy(c.Strategy); err != nil {
			return fmt.Errorf("unknown strategy %q (valid: %s, %s, %s, %s)", c.Strategy,
				diff.StrategyPresence, diff.StrategyEmpty, diff.StrategyIdentical, StrategyStale)
		}
	}
	if c.Driver != "" && !slices.Contains(translate.Names(), c.Driver) {
		return fmt.Errorf("unknown driver %q (valid: %s)", c.Driver, strings.Join(translate.Names(), ", "))
	}
	if _, err := langmeta.Parse(c.SourceLang); err != nil {
		return fmt.Errorf("source_lang: %w", err)
	}
	for _, l := range c.Languages {
		if _, err := langmeta.Parse(l); err != nil {
			return fmt.Errorf("languages: %w", err)
		}
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative")
	}
	return nil
}

// Load reads and validates .locdiff.yaml from rootDir. When the file does
// not exist it returns Default().
func Load(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates configuration data. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("unsupported key: %w", err)
		}
		return nil, fmt.Errorf("parsing: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// AbsDir returns the catalog directory resolved against rootDir.
func (c *Config) AbsDir(rootDir string) string {
	if filepath.IsAbs(c.Dir) {
		return c.Dir
	}
	return filepath.Join(rootDir, c.Dir)
}
