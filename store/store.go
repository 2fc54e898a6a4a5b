package store

import (
	"errors"
	"fmt"
	"time"
)

// Store exposes a backing document through the fields of its Type.
//
// A Store never copies its document: nested stores wrap sub-documents of the
// same map, so a write through any of them is visible to all. A Store is not
// safe for concurrent mutation.
type Store struct {
	typ   *Type
	data  Document
	cache map[string]any
}

// Type returns the store type.
func (s *Store) Type() *Type { return s.typ }

// Data returns the backing document.
func (s *Store) Data() Document { return s.data }

// Get returns the value of the named field. Value fields return the coerced
// value (or their default); embedded fields return a *Store or a
// *Collection, built on first access and cached for the store's lifetime.
func (s *Store) Get(name string) (any, error) {
	f, ok := s.typ.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.typ.Name(), name)
	}
	if ef, ok := f.(*EmbeddedField); ok {
		return s.embedded(name, ef)
	}
	v, err := f.Get(s.data)
	if err != nil {
		return nil, s.wrap(f, err)
	}
	return v, nil
}

func (s *Store) embedded(name string, f *EmbeddedField) (any, error) {
	if v, ok := s.cache[name]; ok {
		return v, nil
	}
	v, err := f.materialize(s.data)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", s.typ.Name(), name, err)
	}
	if s.cache == nil {
		s.cache = make(map[string]any)
	}
	s.cache[name] = v
	return v, nil
}

// Set coerces value through the named field and writes it to the document.
// Embedded fields are rejected before anything is written.
func (s *Store) Set(name string, value any) error {
	f, ok := s.typ.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.typ.Name(), name)
	}
	if err := f.Set(s.data, value); err != nil {
		return s.wrap(f, err)
	}
	return nil
}

func (s *Store) wrap(f Field, err error) error {
	if errors.Is(err, ErrKeyNotFound) {
		return &AttributeError{Store: s.typ.Name(), Target: f.Target(), Err: err}
	}
	return err
}

// String returns the named field as a string.
func (s *Store) String(name string) (string, error) {
	v, err := s.Get(name)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s is %T, not string", ErrConversion, s.typ.Name(), name, v)
	}
	return str, nil
}

// Bool returns the named field as a bool.
func (s *Store) Bool(name string) (bool, error) {
	v, err := s.Get(name)
	if err != nil {
		return false, err
	}
	b, err := toBool(v)
	if err != nil {
		return false, err
	}
	return b.(bool), nil
}

// Int returns the named field as an int64.
func (s *Store) Int(name string) (int64, error) {
	v, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	n, err := toInt(v)
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

// Float returns the named field as a float64.
func (s *Store) Float(name string) (float64, error) {
	v, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return f.(float64), nil
}

// Time returns the named field as a time.Time.
func (s *Store) Time(name string) (time.Time, error) {
	v, err := s.Get(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := toTime(v)
	if err != nil {
		return time.Time{}, err
	}
	return t.(time.Time), nil
}

// Strings returns the named field as a []string.
func (s *Store) Strings(name string) ([]string, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return toStrings(v)
}

// Embedded returns the nested store of the named field.
func (s *Store) Embedded(name string) (*Store, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	nested, ok := v.(*Store)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not an embedded store", ErrConversion, s.typ.Name(), name)
	}
	return nested, nil
}

// Collection returns the collection of the named field.
func (s *Store) Collection(name string) (*Collection, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	c, ok := v.(*Collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a collection", ErrConversion, s.typ.Name(), name)
	}
	return c, nil
}

// Each calls fn for every declared field in declaration order. Fields whose
// target is absent and without default are skipped; any other error stops
// the walk.
func (s *Store) Each(fn func(name string, value any) error) error {
	for _, name := range s.typ.order {
		v, err := s.Get(name)
		if errors.Is(err, ErrLookupFailed) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the backing document holds no keys.
func (s *Store) Empty() bool { return len(s.data) == 0 }
