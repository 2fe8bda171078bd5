// Package langmeta resolves locale codes to display metadata (English and
// native names, emoji flag) used in prompts and CLI output.
package langmeta

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical BCP 47 form (e.g. "pt-BR").
	Code string
	// Name is the English name (e.g. "Brazilian Portuguese").
	Name string
	// Native is the name in the language itself (e.g. "português").
	Native string
	// Flag is the emoji flag of the (possibly inferred) region.
	Flag string
}

// Parse validates lang and returns its language tag. Underscore
// separators (pt_BR, as used by gettext and Laravel) are accepted.
func Parse(lang string) (language.Tag, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return language.Und, fmt.Errorf("empty locale code")
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale code %q: %w", lang, err)
	}
	return tag, nil
}

// Canonicalize returns the canonical BCP 47 form of lang, or lang itself
// when it cannot be parsed.
func Canonicalize(lang string) string {
	tag, err := Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// Resolve returns best-effort metadata for lang. Unknown codes pass
// through as their own name.
func Resolve(lang string) Meta {
	tag, err := Parse(lang)
	if err != nil {
		return Meta{Code: lang, Name: lang, Native: lang}
	}

	m := Meta{Code: tag.String()}
	m.Name = display.English.Tags().Name(tag)
	if m.Name == "" {
		m.Name = m.Code
	}
	m.Native = display.Self.Name(tag)
	if m.Native == "" {
		m.Native = m.Name
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = flagFromRegion(region.String())
	}
	return m
}

// flagFromRegion converts a two-letter region code to a flag emoji.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, r := range region {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
