package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// slot is one bindable reference to a store type. Slots declared by name stay
// unbound until a type with the qualified name is registered. A registry only
// binds slots it copied itself, so the declared Ref is never mutated.
type slot struct {
	name string
	typ  atomic.Pointer[Type]
}

func newSlot(name string, t *Type) *slot {
	s := &slot{name: name}
	if t != nil {
		s.typ.Store(t)
	}
	return s
}

func (s *slot) resolve() (*Type, error) {
	t := s.typ.Load()
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, s.name)
	}
	return t, nil
}

func (s *slot) bind(t *Type) { s.typ.Store(t) }

func (s *slot) bound() bool { return s.typ.Load() != nil }

// copyFor returns a fresh slot for a type declared under owner: types given
// directly stay bound, names are qualified and left unbound.
func (s *slot) copyFor(owner string) *slot {
	if s == nil {
		return nil
	}
	if t := s.typ.Load(); t != nil {
		return newSlot(s.name, t)
	}
	return newSlot(qualify(owner, s.name), nil)
}

// SelectFunc picks the concrete store type for a raw element document.
type SelectFunc func(doc Document) (*Type, error)

// Ref references the store type an embedded field materializes: a type
// handle, a type name resolved later, or a per-document variant choice.
type Ref struct {
	slot *slot

	// variant dispatch
	key    string
	cases  map[string]*slot
	choose SelectFunc
}

// Of references t directly.
func Of(t *Type) Ref {
	if t == nil {
		return Ref{}
	}
	return Ref{slot: newSlot(t.Name(), t)}
}

// Named references a type by qualified name ("shop.User" or "shop:User").
// Names without a namespace are qualified with the namespace of the type
// declaring the field. The reference binds when the type is registered.
func Named(name string) Ref {
	return Ref{slot: newSlot(name, nil)}
}

// Discriminate selects the element type from the value found at key
// (a target path using ":") in each raw document. Values without a case fail
// with ErrUnsupportedVariant.
func Discriminate(key string, cases map[string]Ref) Ref {
	r := Ref{key: key, cases: make(map[string]*slot, len(cases))}
	for tag, c := range cases {
		r.cases[tag] = c.slot
	}
	return r
}

// Select delegates the element type choice to fn.
func Select(fn SelectFunc) Ref {
	return Ref{choose: fn}
}

// IsZero reports whether r references nothing.
func (r Ref) IsZero() bool {
	return r.slot == nil && r.cases == nil && r.choose == nil
}

// Resolved reports whether every type named by r is bound.
func (r Ref) Resolved() bool {
	for _, s := range r.slots() {
		if !s.bound() {
			return false
		}
	}
	return true
}

// TypeFor returns the store type to materialize doc with.
func (r Ref) TypeFor(doc Document) (*Type, error) {
	switch {
	case r.slot != nil:
		return r.slot.resolve()
	case r.choose != nil:
		t, err := r.choose(doc)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("%w: selector returned no type", ErrUnsupportedVariant)
		}
		return t, nil
	case r.cases != nil:
		raw, err := Lookup(doc, r.key, DefaultSeparator)
		if err != nil {
			return nil, fmt.Errorf("%w: missing discriminator %q", ErrUnsupportedVariant, r.key)
		}
		tag, ok := raw.(string)
		if !ok {
			tag = fmt.Sprint(raw)
		}
		s, ok := r.cases[tag]
		if !ok || s == nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrUnsupportedVariant, r.key, tag)
		}
		return s.resolve()
	}
	return nil, fmt.Errorf("%w: empty reference", ErrUnresolved)
}

// New wraps doc with the referenced type.
func (r Ref) New(doc Document) (*Store, error) {
	t, err := r.TypeFor(doc)
	if err != nil {
		return nil, err
	}
	return t.New(doc), nil
}

func (r Ref) slots() []*slot {
	if r.slot != nil {
		return []*slot{r.slot}
	}
	out := make([]*slot, 0, len(r.cases))
	for _, s := range r.cases {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// copyFor returns r with fresh slots for a type declared under owner.
func (r Ref) copyFor(owner string) Ref {
	out := Ref{key: r.key, choose: r.choose, slot: r.slot.copyFor(owner)}
	if r.cases != nil {
		out.cases = make(map[string]*slot, len(r.cases))
		for tag, s := range r.cases {
			out.cases[tag] = s.copyFor(owner)
		}
	}
	return out
}

func (r Ref) validate() error {
	switch {
	case r.slot != nil:
		if r.slot.name == "" {
			return fmt.Errorf("%w: store reference without name", ErrDeclaration)
		}
	case r.choose != nil:
	case r.cases != nil:
		if r.key == "" {
			return fmt.Errorf("%w: variant reference without discriminator", ErrDeclaration)
		}
		if len(r.cases) == 0 {
			return fmt.Errorf("%w: variant reference %q without cases", ErrDeclaration, r.key)
		}
		for tag, s := range r.cases {
			if s == nil || s.name == "" {
				return fmt.Errorf("%w: variant %q without store reference", ErrDeclaration, tag)
			}
		}
	default:
		return fmt.Errorf("%w: empty store reference", ErrDeclaration)
	}
	return nil
}

func (r Ref) String() string {
	switch {
	case r.slot != nil:
		return r.slot.name
	case r.choose != nil:
		return "select(func)"
	case r.cases != nil:
		tags := make([]string, 0, len(r.cases))
		for tag := range r.cases {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = tag + "=" + r.cases[tag].name
		}
		return fmt.Sprintf("%s{%s}", r.key, strings.Join(parts, ","))
	}
	return "<nil>"
}

// EmbeddedField exposes the sub-document at its target as a nested Store, or
// each element of a sub-sequence as a Store of a Collection. An inline field
// adds a level that does not exist in the document: the nested store wraps
// the parent's own document.
type EmbeddedField struct {
	target string
	inline bool
	many   bool
	sep    string
	ref    Ref
}

func newEmbedded(target string, inline, many bool, ref Ref, opts []Option) *EmbeddedField {
	o := buildOptions(opts)
	return &EmbeddedField{target: target, inline: inline, many: many, sep: o.sep, ref: ref}
}

// Embed declares a nested store at target.
func Embed(target string, ref Ref, opts ...Option) *EmbeddedField {
	return newEmbedded(target, false, false, ref, opts)
}

// EmbedMany declares a collection of nested stores at target.
func EmbedMany(target string, ref Ref, opts ...Option) *EmbeddedField {
	return newEmbedded(target, false, true, ref, opts)
}

// Inline declares a virtual nested store over the parent's document.
func Inline(ref Ref) *EmbeddedField {
	return newEmbedded("", true, false, ref, nil)
}

// InlineMany declares a collection over the values of the parent's document.
func InlineMany(ref Ref) *EmbeddedField {
	return newEmbedded("", true, true, ref, nil)
}

// copyFor returns the field as registered on a type declared under owner.
func (f *EmbeddedField) copyFor(owner string) *EmbeddedField {
	c := *f
	c.ref = f.ref.copyFor(owner)
	return &c
}

func (f *EmbeddedField) Target() string { return f.target }

// IsInline reports whether the field reuses its parent's document.
func (f *EmbeddedField) IsInline() bool { return f.inline }

// IsCollection reports whether the field materializes a Collection.
func (f *EmbeddedField) IsCollection() bool { return f.many }

// Ref returns the referenced store type.
func (f *EmbeddedField) Ref() Ref { return f.ref }

// Get returns the raw sub-document the nested store wraps: the parent's
// document when inline, an empty detached value when the target is absent.
func (f *EmbeddedField) Get(doc Document) (any, error) {
	if f.inline {
		return doc, nil
	}
	raw, err := Lookup(doc, f.target, f.sep)
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	if f.many {
		return []any{}, nil
	}
	return Document{}, nil
}

// Set always fails: nested stores are handles onto their slice and are
// mutated through their own fields.
func (f *EmbeddedField) Set(Document, any) error {
	return fmt.Errorf("%w: target %s", ErrEmbeddedAssignment, f.describeTarget())
}

// materialize builds the nested Store or Collection for doc.
func (f *EmbeddedField) materialize(doc Document) (any, error) {
	raw, err := f.Get(doc)
	if err != nil {
		return nil, err
	}
	if f.many {
		if _, err := sequence(raw); err != nil {
			return nil, err
		}
		return newLiveCollection(f.ref, func() (any, error) { return f.Get(doc) }), nil
	}
	m, ok := asDocument(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrNotDocument, f.describeTarget(), raw)
	}
	return f.ref.New(m)
}

func (f *EmbeddedField) validate() error {
	if !f.inline {
		if f.target == "" {
			return fmt.Errorf("%w: embedded field without target", ErrDeclaration)
		}
		if f.sep == "" {
			return fmt.Errorf("%w: empty separator for target %q", ErrDeclaration, f.target)
		}
		if _, err := splitPath(f.target, f.sep); err != nil {
			return fmt.Errorf("%w: %w", ErrDeclaration, err)
		}
	}
	return f.ref.validate()
}

func (f *EmbeddedField) describeTarget() string {
	if f.inline {
		return "<inline>"
	}
	return f.target
}

func (f *EmbeddedField) String() string {
	kind := "embedded"
	if f.many {
		kind = "embedded collection"
	}
	return fmt.Sprintf("<%s field target=%s store=%s>", kind, f.describeTarget(), f.ref)
}
