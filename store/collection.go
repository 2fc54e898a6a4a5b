package store

import (
	"fmt"
	"reflect"
	"sort"
)

// Collection is an indexed sequence of stores over a sub-sequence of a
// document. The sequence is resolved again on every access, so elements
// appended through the document are visible. Element stores are built on
// first access and reused while the same element document sits at their
// index; they share the backing element documents.
type Collection struct {
	ref    Ref
	source func() (any, error)
	cache  []*Store
}

// NewCollection wraps data with ref. data is a sequence of mappings or a
// mapping, in which case its values are taken in sorted key order. A nil
// data yields an empty collection.
func NewCollection(ref Ref, data any) (*Collection, error) {
	if _, err := sequence(data); err != nil {
		return nil, err
	}
	return newLiveCollection(ref, func() (any, error) { return data, nil }), nil
}

func newLiveCollection(ref Ref, source func() (any, error)) *Collection {
	return &Collection{ref: ref, source: source}
}

// sequence flattens the supported collection shapes into a slice.
func sequence(data any) ([]any, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case []map[string]any:
		items := make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = v[k]
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: collection over %T", ErrNotDocument, data)
}

func (c *Collection) items() ([]any, error) {
	raw, err := c.source()
	if err != nil {
		return nil, err
	}
	return sequence(raw)
}

// Len returns the number of elements. A sequence that no longer resolves
// has no elements.
func (c *Collection) Len() int {
	items, err := c.items()
	if err != nil {
		return 0
	}
	return len(items)
}

// At returns the store of element i.
func (c *Collection) At(i int) (*Store, error) {
	items, err := c.items()
	if err != nil {
		return nil, err
	}
	return c.at(items, i)
}

func (c *Collection) at(items []any, i int) (*Store, error) {
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(items))
	}
	doc, ok := asDocument(items[i])
	if !ok {
		return nil, fmt.Errorf("%w: element %d is %T", ErrNotDocument, i, items[i])
	}
	if i < len(c.cache) {
		if s := c.cache[i]; s != nil && sameMap(s.data, doc) {
			return s, nil
		}
	}
	s, err := c.ref.New(doc)
	if err != nil {
		return nil, fmt.Errorf("element %d: %w", i, err)
	}
	if i >= len(c.cache) {
		c.cache = append(c.cache, make([]*Store, i+1-len(c.cache))...)
	}
	c.cache[i] = s
	return s, nil
}

// Each calls fn with every element store in order.
func (c *Collection) Each(fn func(i int, s *Store) error) error {
	items, err := c.items()
	if err != nil {
		return err
	}
	for i := range items {
		s, err := c.at(items, i)
		if err != nil {
			return err
		}
		if err := fn(i, s); err != nil {
			return err
		}
	}
	return nil
}

// Stores materializes every element.
func (c *Collection) Stores() ([]*Store, error) {
	out := []*Store{}
	err := c.Each(func(_ int, s *Store) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sameMap(a, b Document) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
