package localefile

import (
	"bytes"
	"strings"

	"github.com/minios-linux/locdiff/tree"
)

// ParseProperties parses Java-style .properties content. Keys are dotted
// paths ("auth.failed=...") and are nested on load. Lines starting with
// '#' or '!' are comments. Backslash continuation is not supported; each
// line is independent.
func ParseProperties(data []byte) (*tree.Tree, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	fm := tree.NewFlatMap()
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		k, v := splitKeyValue(trimmed)
		if k == "" {
			continue
		}
		// Duplicate keys overwrite the value but keep the first position.
		fm.Set(k, unescapeProperty(v))
	}
	return tree.Unflatten(fm)
}

// splitKeyValue splits "key = value" or "key=value" into key and value.
// The separator may be '=' or ':'.
func splitKeyValue(s string) (key, value string) {
	for i, ch := range s {
		if ch == '=' || ch == ':' {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return strings.TrimSpace(s), ""
}

var (
	propertyUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t")
	propertyEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`)
)

func unescapeProperty(s string) string { return propertyUnescaper.Replace(s) }

// MarshalProperties writes t as key=value lines in tree order, one dotted
// path per leaf.
func MarshalProperties(t *tree.Tree) ([]byte, error) {
	fm, err := tree.Flatten(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, e := range fm.Entries() {
		buf.WriteString(e.Path)
		buf.WriteByte('=')
		buf.WriteString(propertyEscaper.Replace(e.Value))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
