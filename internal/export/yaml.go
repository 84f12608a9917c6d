package export

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jherman/bibflow/internal/document"
)

// ToYAML renders documents as a multi-document YAML stream, preserving
// field order.
func ToYAML(docs []*document.Document) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	for _, doc := range docs {
		node, err := yamlNode(doc)
		if err != nil {
			return "", err
		}
		if err := enc.Encode(node); err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding yaml: %w", err)
	}

	return buf.String(), nil
}

// yamlNode builds an ordered mapping node from a document.
func yamlNode(doc *document.Document) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range doc.Keys() {
		v, _ := doc.Get(key)

		keyNode := &yaml.Node{}
		keyNode.SetString(key)

		valueNode := &yaml.Node{}
		if err := valueNode.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", key, err)
		}

		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// FromYAML reads a multi-document YAML stream into raw records.
func FromYAML(data []byte) ([]map[string]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var records []map[string]any
	for {
		var rec map[string]any
		err := dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}

	return records, nil
}
