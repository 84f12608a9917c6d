// Package schema implements declarative field-by-field conversion of raw
// source records into canonical fields.
//
// A conversion Table maps each source field name to one or more Rules. Each
// rule optionally renames the field and optionally transforms its value.
// Multiple rules for one source field fan its value out into several
// canonical fields; a transform may itself aggregate nested elements
// (fan-in). A failing transform degrades only its own field, never the
// whole record.
package schema

import (
	"fmt"
	"sort"
)

// Transform converts a raw source value into a canonical value.
type Transform func(value any) (any, error)

// Rule describes how one source field contributes one canonical field.
// A zero TargetKey keeps the source field name; a nil Transform keeps the
// value unchanged.
type Rule struct {
	TargetKey string
	Transform Transform
}

// Table is an immutable conversion table: source field name -> rules.
// Build it once with NewTable and share it across normalization calls.
type Table struct {
	rules map[string][]Rule
	keys  []string
}

// NewTable builds a Table. Single rules and rule lists are both accepted
// here so lookups never have to distinguish the two shapes.
func NewTable(rules map[string][]Rule) Table {
	m := make(map[string][]Rule, len(rules))
	keys := make([]string, 0, len(rules))
	for k, rs := range rules {
		rcopy := make([]Rule, len(rs))
		copy(rcopy, rs)
		m[k] = rcopy
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Table{rules: m, keys: keys}
}

// One wraps a single rule as a rule list, for table literals.
func One(r Rule) []Rule {
	return []Rule{r}
}

// Same is a rule list that keeps the source key and value unchanged.
func Same() []Rule {
	return []Rule{{}}
}

// SourceKeys returns the table's source field names in sorted order.
func (t Table) SourceKeys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Rules returns the rules for a source key.
func (t Table) Rules(sourceKey string) ([]Rule, bool) {
	rs, ok := t.rules[sourceKey]
	return rs, ok
}

// Field is one converted canonical field.
type Field struct {
	Key   string
	Value any
}

// Fragment is the ordered set of canonical fields produced from one source
// record.
type Fragment []Field

// FieldError records a transform failure for a single source field.
type FieldError struct {
	SourceKey string
	TargetKey string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("converting %s -> %s: %v", e.SourceKey, e.TargetKey, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Apply converts every source field covered by the table. Source keys are
// visited in the table's sorted order, rules in declaration order, so the
// fragment is deterministic. Transform failures (including panics on
// malformed nested data) are collected and skip only the affected field.
func Apply(source map[string]any, table Table) (Fragment, []*FieldError) {
	var frag Fragment
	var errs []*FieldError

	for _, srcKey := range table.keys {
		raw, ok := source[srcKey]
		if !ok {
			continue
		}
		for _, rule := range table.rules[srcKey] {
			target := rule.TargetKey
			if target == "" {
				target = srcKey
			}
			value, err := applyRule(rule, raw)
			if err != nil {
				errs = append(errs, &FieldError{SourceKey: srcKey, TargetKey: target, Err: err})
				continue
			}
			frag = append(frag, Field{Key: target, Value: value})
		}
	}

	return frag, errs
}

// applyRule runs one rule's transform, converting panics on malformed
// source data into ordinary errors.
func applyRule(rule Rule, raw any) (value any, err error) {
	if rule.Transform == nil {
		return raw, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return rule.Transform(raw)
}
