// Package tree implements the locale catalog model: an insertion-ordered
// tree of keys whose leaves are strings, and its flattened form keyed by
// dot-joined paths.
//
//	{"nav": {"home": "Home", "about": "About"}, "title": "Hello"}
//
// flattens to
//
//	nav.home  = Home
//	nav.about = About
//	title     = Hello
//
// Flattening is depth-first, pre-order, children in insertion order.
// Empty subtrees produce no entries.
package tree

// Separator is the default path separator.
const Separator = "."

// Value is either a leaf string or a nested tree.
// A Value with a nil Tree is a leaf.
type Value struct {
	Text string
	Tree *Tree
}

// Leaf returns a leaf value.
func Leaf(text string) Value {
	return Value{Text: text}
}

// Node returns a nested value.
func Node(t *Tree) Value {
	return Value{Tree: t}
}

// IsLeaf reports whether v holds a string.
func (v Value) IsLeaf() bool {
	return v.Tree == nil
}

// Tree is an insertion-ordered mapping from keys to values.
// The zero value is not usable; use New.
type Tree struct {
	// keys preserves insertion order.
	keys  []string
	items map[string]Value
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{items: make(map[string]Value)}
}

// Len returns the number of keys at this level.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Keys returns the keys at this level in insertion order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Get returns the value stored under key at this level.
func (t *Tree) Get(key string) (Value, bool) {
	v, ok := t.items[key]
	return v, ok
}

// Put stores v under key. A new key is appended; an existing key keeps
// its position.
func (t *Tree) Put(key string, v Value) {
	if _, ok := t.items[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.items[key] = v
}

// PutLeaf is shorthand for Put(key, Leaf(text)).
func (t *Tree) PutLeaf(key, text string) {
	t.Put(key, Leaf(text))
}

// Child returns the subtree under key, creating it when absent.
// It returns nil if key holds a leaf.
func (t *Tree) Child(key string) *Tree {
	if v, ok := t.items[key]; ok {
		return v.Tree
	}
	child := New()
	t.Put(key, Node(child))
	return child
}

// Lookup walks segments from t and returns the value at the end of the path.
func (t *Tree) Lookup(segments ...string) (Value, bool) {
	cur := t
	for i, seg := range segments {
		v, ok := cur.items[seg]
		if !ok {
			return Value{}, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		if v.IsLeaf() {
			return Value{}, false
		}
		cur = v.Tree
	}
	return Node(t), true
}

// Set stores text at the path given by segments, creating intermediate
// nodes as needed. It fails with a *ConflictError if an intermediate
// segment holds a leaf, or if the final segment holds a subtree.
func (t *Tree) Set(segments []string, text string, sep string) error {
	cur := t
	for i, seg := range segments[:len(segments)-1] {
		v, ok := cur.items[seg]
		if ok && v.IsLeaf() {
			return &ConflictError{Path: joinPath(segments[:i+1], sep), Reason: ReasonScalar}
		}
		cur = cur.Child(seg)
	}
	last := segments[len(segments)-1]
	if v, ok := cur.items[last]; ok && !v.IsLeaf() {
		return &ConflictError{Path: joinPath(segments, sep), Reason: ReasonNode}
	}
	cur.PutLeaf(last, text)
	return nil
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	out := &Tree{
		keys:  make([]string, len(t.keys)),
		items: make(map[string]Value, len(t.items)),
	}
	copy(out.keys, t.keys)
	for k, v := range t.items {
		if !v.IsLeaf() {
			v = Node(v.Tree.Clone())
		}
		out.items[k] = v
	}
	return out
}

// Equal reports whether t and o hold the same keys in the same order,
// with equal values.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.keys) != len(o.keys) {
		return false
	}
	for i, k := range t.keys {
		if o.keys[i] != k {
			return false
		}
		a, b := t.items[k], o.items[k]
		if a.IsLeaf() != b.IsLeaf() {
			return false
		}
		if a.IsLeaf() {
			if a.Text != b.Text {
				return false
			}
			continue
		}
		if !a.Tree.Equal(b.Tree) {
			return false
		}
	}
	return true
}

// FromPairs builds a tree from alternating key, value arguments where each
// value is a string or a *Tree. Values of other types are ignored.
//
//	tree.FromPairs("a", tree.FromPairs("b", "Hello"), "c", "Bye")
func FromPairs(pairs ...any) *Tree {
	t := New()
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case string:
			t.PutLeaf(key, v)
		case *Tree:
			t.Put(key, Node(v))
		}
	}
	return t
}
