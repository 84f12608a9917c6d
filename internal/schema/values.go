package schema

import "fmt"

// Helpers for transforms operating on decoded JSON values, where lists are
// []any and objects are map[string]any.

// AsString asserts a string value.
func AsString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

// AsSlice asserts a list value.
func AsSlice(v any) ([]any, error) {
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	return s, nil
}

// AsMap asserts an object value.
func AsMap(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return m, nil
}

// First returns the first element of a list value. An empty list is an
// error so the field is dropped rather than set to nil.
func First(v any) (any, error) {
	s, err := AsSlice(v)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return s[0], nil
}
