package store

import (
	"fmt"
	"strings"
)

// DefaultSeparator splits compound target paths into keys.
const DefaultSeparator = ":"

// Document is a backing document: a mutable, string-keyed mapping whose
// values are scalars, nested mappings or sequences.
type Document = map[string]any

// Lookup returns the value at path inside doc. A path containing sep is
// compound and walks one mapping level per segment. The first absent key
// yields a *KeyError.
func Lookup(doc Document, path, sep string) (any, error) {
	keys, err := splitPath(path, sep)
	if err != nil {
		return nil, err
	}
	var cur any = doc
	for _, key := range keys {
		m, ok := asDocument(cur)
		if !ok {
			return nil, &KeyError{Path: path, Key: key}
		}
		v, ok := m[key]
		if !ok {
			return nil, &KeyError{Path: path, Key: key}
		}
		cur = v
	}
	return cur, nil
}

// Assign stores value at path inside doc. Every level but the last must
// already exist; missing intermediates yield a *KeyError and doc is left
// untouched.
func Assign(doc Document, path, sep string, value any) error {
	keys, err := splitPath(path, sep)
	if err != nil {
		return err
	}
	last := len(keys) - 1
	m := doc
	for _, key := range keys[:last] {
		v, ok := m[key]
		if !ok {
			return &KeyError{Path: path, Key: key}
		}
		next, ok := asDocument(v)
		if !ok {
			return &KeyError{Path: path, Key: key}
		}
		m = next
	}
	if m == nil {
		return &KeyError{Path: path, Key: keys[last]}
	}
	m[keys[last]] = value
	return nil
}

// splitPath breaks path into keys; the separator must not appear inside a
// real key.
func splitPath(path, sep string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if sep == "" || !strings.Contains(path, sep) {
		return []string{path}, nil
	}
	keys := strings.Split(path, sep)
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return keys, nil
}

func asDocument(v any) (Document, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
