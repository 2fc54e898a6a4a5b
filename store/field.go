package store

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the coercion a value field applies.
type Kind int

const (
	KindRaw Kind = iota
	KindBool
	KindDate
	KindInt
	KindFloat
	KindLongInt
	KindSplit
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindLongInt:
		return "long integer"
	case KindSplit:
		return "split"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field is an accessor bound to a target inside a backing document.
// Fields are compared by identity.
type Field interface {
	// Target returns the declared target path, or "" for inline embedded fields.
	Target() string

	// Get resolves the field's value from doc.
	Get(doc Document) (any, error)

	// Set writes value into doc at the field's target.
	Set(doc Document, value any) error

	String() string

	validate() error
}

// Option configures a field at construction.
type Option func(*fieldOptions)

type fieldOptions struct {
	sep      string
	valueSep string
	def      any
	hasDef   bool
}

// WithSeparator sets the character splitting a compound target path.
// Default: ":".
func WithSeparator(sep string) Option {
	return func(o *fieldOptions) { o.sep = sep }
}

// WithDefault sets the value returned when the target path is absent.
// The default goes through the field's coercion like any raw value.
func WithDefault(v any) Option {
	return func(o *fieldOptions) {
		o.def = v
		o.hasDef = true
	}
}

// WithValueSeparator sets the separator a split field cuts string values on.
// Default: ",".
func WithValueSeparator(sep string) Option {
	return func(o *fieldOptions) { o.valueSep = sep }
}

func buildOptions(opts []Option) fieldOptions {
	o := fieldOptions{sep: DefaultSeparator, valueSep: ","}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValueField maps a target path to a scalar (or raw) value, optionally
// coercing it to a semantic type.
type ValueField struct {
	kind     Kind
	target   string
	sep      string
	valueSep string
	def      any
	hasDef   bool
}

func newValueField(kind Kind, target string, opts []Option) *ValueField {
	o := buildOptions(opts)
	return &ValueField{
		kind:     kind,
		target:   target,
		sep:      o.sep,
		valueSep: o.valueSep,
		def:      o.def,
		hasDef:   o.hasDef,
	}
}

// NewField returns a field returning the raw value at target.
func NewField(target string, opts ...Option) *ValueField {
	return newValueField(KindRaw, target, opts)
}

// NewBoolField returns a field accepting booleans and the tokens "true" and "false".
func NewBoolField(target string, opts ...Option) *ValueField {
	return newValueField(KindBool, target, opts)
}

// NewDateField returns a field parsing ISO-8601 timestamps into time.Time.
func NewDateField(target string, opts ...Option) *ValueField {
	return newValueField(KindDate, target, opts)
}

// NewIntField returns a field coercing values to int64.
func NewIntField(target string, opts ...Option) *ValueField {
	return newValueField(KindInt, target, opts)
}

// NewFloatField returns a field coercing values to float64.
func NewFloatField(target string, opts ...Option) *ValueField {
	return newValueField(KindFloat, target, opts)
}

// NewLongIntField returns a field coercing values to int64 after stripping
// separators such as the dashes of an ISBN.
func NewLongIntField(target string, opts ...Option) *ValueField {
	return newValueField(KindLongInt, target, opts)
}

// NewSplitField returns a field turning a separated string into []string.
// Values that already are sequences are returned unchanged.
func NewSplitField(target string, opts ...Option) *ValueField {
	return newValueField(KindSplit, target, opts)
}

func (f *ValueField) Target() string { return f.target }

// Kind returns the coercion applied by the field.
func (f *ValueField) Kind() Kind { return f.kind }

// Separator returns the compound path separator.
func (f *ValueField) Separator() string { return f.sep }

// Default returns the configured default and whether one was set.
func (f *ValueField) Default() (any, bool) { return f.def, f.hasDef }

// Get resolves and coerces the value. A missing path returns the default
// when one was configured, the lookup error otherwise.
func (f *ValueField) Get(doc Document) (any, error) {
	raw, err := Lookup(doc, f.target, f.sep)
	if err != nil {
		if !f.hasDef || !errors.Is(err, ErrKeyNotFound) {
			return nil, err
		}
		raw = f.def
	}
	return f.coerce(raw)
}

// Set coerces value and writes it at the target. Intermediate levels of a
// compound path must already exist.
func (f *ValueField) Set(doc Document, value any) error {
	v, err := f.coerce(value)
	if err != nil {
		return err
	}
	return Assign(doc, f.target, f.sep, v)
}

func (f *ValueField) coerce(raw any) (any, error) {
	switch f.kind {
	case KindBool:
		return toBool(raw)
	case KindDate:
		return toTime(raw)
	case KindInt:
		return toInt(raw)
	case KindFloat:
		return toFloat(raw)
	case KindLongInt:
		return toLongInt(raw)
	case KindSplit:
		return split(raw, f.valueSep)
	default:
		return raw, nil
	}
}

func (f *ValueField) validate() error {
	if f.target == "" {
		return fmt.Errorf("%w: %s field without target", ErrDeclaration, f.kind)
	}
	if f.sep == "" {
		return fmt.Errorf("%w: empty separator for target %q", ErrDeclaration, f.target)
	}
	if f.kind == KindSplit && f.valueSep == "" {
		return fmt.Errorf("%w: empty value separator for target %q", ErrDeclaration, f.target)
	}
	if _, err := splitPath(f.target, f.sep); err != nil {
		return fmt.Errorf("%w: %w", ErrDeclaration, err)
	}
	return nil
}

func (f *ValueField) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s field target=%s", f.kind, f.target)
	if f.hasDef {
		fmt.Fprintf(&b, " default=%v", f.def)
	}
	b.WriteString(">")
	return b.String()
}
