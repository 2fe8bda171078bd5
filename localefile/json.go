package localefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minios-linux/locdiff/tree"
)

// ParseJSON decodes a JSON object into a tree, keeping the key order of
// the document.
func ParseJSON(data []byte) (*tree.Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return tree.New(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing JSON: root must be an object, got %v", t)
	}

	root, err := decodeObject(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing JSON: unexpected data after root object")
	}
	return root, nil
}

// decodeObject reads members until the closing brace. The opening brace
// has already been consumed.
func decodeObject(dec *json.Decoder) (*tree.Tree, error) {
	t := tree.New()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		t.Put(key, v)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return t, nil
}

// decodeArray reads elements until the closing bracket, keyed by index.
func decodeArray(dec *json.Decoder) (*tree.Tree, error) {
	t := tree.New()
	for i := 0; dec.More(); i++ {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		t.Put(strconv.Itoa(i), v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeValue(dec *json.Decoder) (tree.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return tree.Value{}, err
	}

	switch v := tok.(type) {
	case json.Delim:
		var sub *tree.Tree
		switch v {
		case '{':
			sub, err = decodeObject(dec)
		case '[':
			sub, err = decodeArray(dec)
		default:
			err = fmt.Errorf("unexpected %v", v)
		}
		if err != nil {
			return tree.Value{}, err
		}
		return tree.Node(sub), nil
	case string:
		return tree.Leaf(v), nil
	case json.Number:
		return tree.Leaf(v.String()), nil
	case bool:
		return tree.Leaf(strconv.FormatBool(v)), nil
	case nil:
		return tree.Leaf(""), nil
	}
	return tree.Value{}, fmt.Errorf("unexpected token %v", tok)
}

// MarshalJSON encodes t as a JSON object with 4-space indentation, in
// tree order.
func MarshalJSON(t *tree.Tree) ([]byte, error) {
	var b strings.Builder
	writeJSONObject(&b, t, 0)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func writeJSONObject(b *strings.Builder, t *tree.Tree, depth int) {
	keys := t.Keys()
	if len(keys) == 0 {
		b.WriteString("{}")
		return
	}

	indent := strings.Repeat("    ", depth+1)
	b.WriteString("{\n")
	for i, k := range keys {
		v, _ := t.Get(k)
		b.WriteString(indent)
		b.WriteString(jsonString(k))
		b.WriteString(": ")
		if v.IsLeaf() {
			b.WriteString(jsonString(v.Text))
		} else {
			writeJSONObject(b, v.Tree, depth+1)
		}
		if i < len(keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteByte('}')
}

// jsonString returns s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
