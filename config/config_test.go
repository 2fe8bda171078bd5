package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsAndValidation(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		c, err := Load(t.TempDir())
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if c.Dir != "lang" || c.SourceLang != "en" || c.Separator != "." || c.Strategy != "presence" || c.Parallel != 1 {
			t.Fatalf("unexpected defaults: %#v", c)
		}
	})

	t.Run("reads fields", func(t *testing.T) {
		dir := t.TempDir()
		yaml := "dir: resources/lang\n" +
			"format: yaml\n" +
			"source_lang: en\n" +
			"languages: [fr, pt_BR]\n" +
			"driver: groq\n" +
			"timeout: 90s\n" +
			"chunk_size: 50\n"
		if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		c, err := Load(dir)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if c.Format != "yaml" || c.Driver != "groq" || c.ChunkSize != 50 {
			t.Fatalf("unexpected config: %#v", c)
		}
		if c.Timeout != 90*time.Second {
			t.Fatalf("Timeout = %v, want 90s", c.Timeout)
		}
		if !reflect.DeepEqual(c.Languages, []string{"fr", "pt_BR"}) {
			t.Fatalf("Languages = %v", c.Languages)
		}
		if got := c.AbsDir(dir); got != filepath.Join(dir, "resources", "lang") {
			t.Fatalf("AbsDir() = %q", got)
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := Parse([]byte("po_dir: po\n"))
		if err == nil || !strings.Contains(err.Error(), "unsupported key") {
			t.Fatalf("Parse error = %v, want unsupported key", err)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		c, err := Parse([]byte(""))
		if err != nil {
			t.Fatalf("Parse(empty) error: %v", err)
		}
		if c.Dir != "lang" {
			t.Fatalf("Dir = %q, want lang", c.Dir)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "bad format", yaml: "format: php\n", wantErr: "unknown format"},
		{name: "bad strategy", yaml: "strategy: fuzzy\n", wantErr: "unknown strategy"},
		{name: "bad driver", yaml: "driver: babelfish\n", wantErr: "unknown driver"},
		{name: "bad language", yaml: "languages: [\"not a locale\"]\n", wantErr: "languages"},
		{name: "negative chunk", yaml: "chunk_size: -1\n", wantErr: "chunk_size"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want %q", tc.yaml, err, tc.wantErr)
			}
		})
	}

	if _, err := Parse([]byte("strategy: stale\n")); err != nil {
		t.Fatalf("Parse(stale) error: %v", err)
	}
}
