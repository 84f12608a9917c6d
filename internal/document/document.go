// Package document defines the canonical bibliographic record that every
// source is normalized into.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Well-known canonical field names. The vocabulary is open; these are the
// fields the rest of the system reads back.
const (
	KeyRef        = "ref"
	KeyTitle      = "title"
	KeyAuthor     = "author"
	KeyAuthorList = "author_list"
	KeyDOI        = "doi"
	KeyYear       = "year"
	KeyMonth      = "month"
	KeyType       = "type"
	KeyJournal    = "journal"
	KeyURL        = "url"
	KeyCitations  = "citations"
)

// Document is one canonical bibliographic record: an insertion-ordered
// mapping from field name to value. Values are strings, numbers, or nested
// structures (maps/slices from decoded source payloads). All fields are
// optional.
type Document struct {
	keys   []string
	fields map[string]any
}

// New returns an empty document.
func New() *Document {
	return &Document{fields: make(map[string]any)}
}

// FromMap builds a document from a plain map. Keys are inserted in sorted
// order so that documents built from unordered maps serialize
// deterministically.
func FromMap(m map[string]any) *Document {
	d := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Set stores a field value, preserving the position of existing keys.
func (d *Document) Set(key string, value any) {
	if _, ok := d.fields[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = value
}

// Get returns a field value and whether it is present.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Has reports whether a field is present.
func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Delete removes a field if present.
func (d *Document) Delete(key string) {
	if _, ok := d.fields[key]; !ok {
		return
	}
	delete(d.fields, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.keys)
}

// String returns a field rendered as a string. Numbers are formatted
// without a decimal point when integral; absent fields yield "".
func (d *Document) String(key string) string {
	v, ok := d.fields[key]
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Ref returns the citation key, if set.
func (d *Document) Ref() string {
	return d.String(KeyRef)
}

// Clone returns a shallow copy (field values are shared).
func (d *Document) Clone() *Document {
	c := New()
	for _, k := range d.keys {
		c.Set(k, d.fields[k])
	}
	return c
}

// ToMap returns the fields as a plain map. Mutating the result does not
// affect the document's key order.
func (d *Document) ToMap() map[string]any {
	m := make(map[string]any, len(d.fields))
	for k, v := range d.fields {
		m[k] = v
	}
	return m
}

// MarshalJSON serializes fields in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.fields[k])
		if err != nil {
			return nil, fmt.Errorf("marshaling field %s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping keys in sorted order.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = *FromMap(m)
	return nil
}

// Stringify renders an arbitrary field value as a display string.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
