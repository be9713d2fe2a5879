package mapping

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when the document root is not a YAML mapping.
var ErrNotMapping = errors.New("mapping file root is not a mapping")

// Raw is a loaded but not yet decoded mapping file. It keeps the YAML node
// tree so the shape of each section can be checked before decoding.
type Raw struct {
	Path string
	root *yaml.Node
	keys map[string]*yaml.Node
}

// Load reads and parses the mapping file at path.
func Load(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	raw.Path = path
	return raw, nil
}

// Parse parses a mapping document.
func Parse(data []byte) (*Raw, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNotMapping
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	keys := make(map[string]*yaml.Node, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys[root.Content[i].Value] = root.Content[i+1]
	}
	return &Raw{root: root, keys: keys}, nil
}

// Has reports whether key is present with a non-null value.
func (r *Raw) Has(key string) bool {
	n, ok := r.keys[key]
	if !ok {
		return false
	}
	return !isNull(n)
}

// SectionShape describes what a section holds in the raw document.
type SectionShape int

const (
	ShapeAbsent SectionShape = iota
	ShapeNull
	ShapeSequence
	ShapeOther
)

// Shape reports the shape of section.
func (r *Raw) Shape(section string) SectionShape {
	n, ok := r.keys[section]
	switch {
	case !ok:
		return ShapeAbsent
	case isNull(n):
		return ShapeNull
	case n.Kind == yaml.SequenceNode:
		return ShapeSequence
	default:
		return ShapeOther
	}
}

// Value returns the literal text of key for diagnostics.
func (r *Raw) Value(key string) string {
	n, ok := r.keys[key]
	if !ok {
		return ""
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return string(out)
}

// Decode converts the raw tree into a Document. Callers are expected to
// check section shapes first; a non-sequence section fails here.
func (r *Raw) Decode() (*Document, error) {
	var doc Document
	if err := r.root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode mapping document: %w", err)
	}
	return &doc, nil
}

// LoadDocument loads and decodes path in one step.
func LoadDocument(path string) (*Document, error) {
	raw, err := Load(path)
	if err != nil {
		return nil, err
	}
	return raw.Decode()
}

func isNull(n *yaml.Node) bool {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || (n.Value == "" && n.Style == 0))
}
