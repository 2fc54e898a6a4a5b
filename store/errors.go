package store

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when a key along a target path is absent.
	ErrKeyNotFound = errors.New("barrel: key not found")

	// ErrLookupFailed is returned when a store field cannot be resolved from its document.
	ErrLookupFailed = errors.New("barrel: store lookup failed")

	// ErrConversion is returned when a raw value cannot be coerced to the field type.
	ErrConversion = errors.New("barrel: cannot convert value")

	// ErrDeclaration is returned when a store type or one of its fields is malformed.
	ErrDeclaration = errors.New("barrel: invalid declaration")

	// ErrInvalidPath is returned for empty target paths or paths with empty segments.
	ErrInvalidPath = errors.New("barrel: invalid target path")

	// ErrEmbeddedAssignment is returned when assigning to an embedded store field.
	ErrEmbeddedAssignment = errors.New("barrel: embedded store is not assignable")

	// ErrUnknownField is returned when a name is not declared on the store type.
	ErrUnknownField = errors.New("barrel: unknown field")

	// ErrUnresolved is returned when a named store reference has no registered type yet.
	ErrUnresolved = errors.New("barrel: unresolved store reference")

	// ErrUnsupportedVariant is returned when a discriminator value has no registered variant.
	ErrUnsupportedVariant = errors.New("barrel: unsupported variant")

	// ErrOutOfRange is returned when a collection index is outside the backing sequence.
	ErrOutOfRange = errors.New("barrel: index out of range")

	// ErrSealed is returned when registering a type after the registry was sealed.
	ErrSealed = errors.New("barrel: registry is sealed")

	// ErrNotDocument is returned when an embedded target holds something other than a mapping or sequence.
	ErrNotDocument = errors.New("barrel: value is not a document")
)

// KeyError reports the first key of a path that could not be resolved.
type KeyError struct {
	Path string
	Key  string
}

func (e *KeyError) Error() string {
	if e.Path == e.Key {
		return fmt.Sprintf("barrel: key %q not found", e.Key)
	}
	return fmt.Sprintf("barrel: key %q not found in path %q", e.Key, e.Path)
}

func (e *KeyError) Unwrap() error { return ErrKeyNotFound }

// AttributeError is the uniform failure returned by Store accessors when a
// field's target cannot be resolved, however deep the missing key was.
type AttributeError struct {
	Store  string
	Target string
	Err    error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("barrel: '%s' store lookup failed for '%s'", e.Store, e.Target)
}

func (e *AttributeError) Unwrap() []error { return []error{ErrLookupFailed, e.Err} }

// ConversionError reports a raw value rejected by a field coercion.
type ConversionError struct {
	Kind  Kind
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("barrel: cannot convert to %s: %v (%v)", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("barrel: cannot convert to %s: %v", e.Kind, e.Value)
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConversion}
	}
	return []error{ErrConversion, e.Err}
}
