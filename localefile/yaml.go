package localefile

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locdiff/tree"
)

// ParseYAML decodes a YAML mapping into a tree, keeping document order.
// An empty document yields an empty tree.
func ParseYAML(data []byte) (*tree.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return tree.New(), nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping, got kind %d", root.Kind)
	}
	return collectMapping(root, "")
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// collectMapping converts a mapping node into a tree.
func collectMapping(node *yaml.Node, prefix string) (*tree.Tree, error) {
	t := tree.New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		v, err := collectValue(node.Content[i+1], joinPrefix(prefix, key))
		if err != nil {
			return nil, err
		}
		t.Put(key, v)
	}
	return t, nil
}

func collectValue(node *yaml.Node, path string) (tree.Value, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.MappingNode:
		sub, err := collectMapping(node, path)
		if err != nil {
			return tree.Value{}, err
		}
		return tree.Node(sub), nil
	case yaml.SequenceNode:
		sub := tree.New()
		for i, item := range node.Content {
			v, err := collectValue(item, joinPrefix(path, strconv.Itoa(i)))
			if err != nil {
				return tree.Value{}, err
			}
			sub.Put(strconv.Itoa(i), v)
		}
		return tree.Node(sub), nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return tree.Leaf(""), nil
		}
		return tree.Leaf(node.Value), nil
	}
	return tree.Value{}, fmt.Errorf("%s: unsupported YAML node kind %d", path, node.Kind)
}

func joinPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// MarshalYAML encodes t as a YAML mapping in tree order. Every leaf is
// written as a string.
func MarshalYAML(t *tree.Tree) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{buildMapping(t)}}
	return yaml.Marshal(doc)
}

func buildMapping(t *tree.Tree) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		var valNode *yaml.Node
		if v.IsLeaf() {
			valNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text}
		} else {
			valNode = buildMapping(v.Tree)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node
}
