package export

import (
	"encoding/json"
	"fmt"

	"github.com/jherman/bibflow/internal/document"
)

// ToJSON renders documents as an indented JSON array, preserving field
// order.
func ToJSON(docs []*document.Document) (string, error) {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding json: %w", err)
	}
	return string(data) + "\n", nil
}

// FromJSON reads a JSON array of objects into raw records.
func FromJSON(data []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return records, nil
}
