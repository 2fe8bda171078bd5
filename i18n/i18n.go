// Package i18n translates the messages of the locdiff CLI.
//
// It wraps gotext with T() and N(). Catalogs are embedded from
// locales/{lang}/LC_MESSAGES/locdiff.po and loaded by Init():
//
//	i18n.Init("")  // LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	fmt.Printf(i18n.N("%d untranslated key detected.", "%d untranslated keys detected.", n), n)
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Directory structure: locales/{lang}/LC_MESSAGES/locdiff.po
//
//go:embed all:locales
var locales embed.FS

const domain = "locdiff"

var po *gotext.Locale

// Init loads the catalog for lang, or for the language detected from the
// environment when lang is empty. Call it once before T() or N().
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates msgid, returning it unchanged when no translation exists.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a message with plural forms chosen by n.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage follows the GNU gettext priority
// LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE is a colon-separated list
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// C and POSIX mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
