package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Declaration names a field of a store type.
type Declaration struct {
	Name  string
	Field Field
}

// Declare pairs an attribute name with its field.
func Declare(name string, f Field) Declaration {
	return Declaration{Name: name, Field: f}
}

// Definition describes a store type to register.
type Definition struct {
	// Name is the qualified type name (e.g., "shop.User"). A colon-qualified
	// name ("shop:User") is normalized to the dotted form.
	Name string

	// Extends lists the types whose fields are inherited. On a name
	// collision the earlier parent wins and own fields override all parents.
	Extends []*Type

	// Fields are the type's own fields in declaration order.
	Fields []Declaration
}

// Type is a registered store type: its name and its merged field registry.
// A Type never changes after registration.
type Type struct {
	name    string
	parents []*Type
	fields  map[string]Field
	order   []string
}

// Name returns the qualified type name.
func (t *Type) Name() string { return t.name }

// Field returns the field declared (or inherited) under name.
func (t *Type) Field(name string) (Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// Fields returns the field names in declaration order, parents first.
func (t *Type) Fields() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Extends reports whether t is other or inherits from it.
func (t *Type) Extends(other *Type) bool {
	if t == other {
		return true
	}
	for _, p := range t.parents {
		if p.Extends(other) {
			return true
		}
	}
	return false
}

// New wraps doc. A nil doc is replaced by a fresh empty document.
func (t *Type) New(doc Document) *Store {
	if doc == nil {
		doc = Document{}
	}
	return &Store{typ: t, data: doc}
}

func (t *Type) String() string { return t.name }

// Importer resolves qualified type names a registry does not hold itself.
type Importer interface {
	Import(name string) (*Type, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithImporter consults imp for referenced names missing from the registry.
func WithImporter(imp Importer) RegistryOption {
	return func(r *Registry) { r.importer = imp }
}

// Registry holds store types by qualified name and binds references made by
// name once the named type is registered.
//
// Lifecycle: types are registered during start-up (phase 1), in any order.
// Seal (phase 2) verifies that every named reference is bound and freezes
// the registry. Stores may be created before Seal; materializing a nested
// store whose reference is still pending fails with ErrUnresolved.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]*Type
	order    []*Type
	pending  map[string][]*slot
	importer Importer
	sealed   bool
}

// NewRegistry creates a new empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		types:   make(map[string]*Type),
		pending: make(map[string][]*slot),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates def, merges its fields with its parents' and adds the
// resulting type. Named references to types not registered yet are kept
// pending; registering a type binds every reference waiting on its name.
func (r *Registry) Register(def Definition) (*Type, error) {
	name := normalizeName(def.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: type without name", ErrDeclaration)
	}

	t := &Type{name: name, parents: def.Extends, fields: make(map[string]Field)}
	for _, p := range def.Extends {
		if p == nil {
			return nil, fmt.Errorf("%w: %s extends a nil type", ErrDeclaration, name)
		}
		for _, fname := range p.order {
			if _, ok := t.fields[fname]; ok {
				continue
			}
			t.fields[fname] = p.fields[fname]
			t.order = append(t.order, fname)
		}
	}

	own := make(map[string]bool, len(def.Fields))
	var refs []*slot
	for _, d := range def.Fields {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: %s declares a field without name", ErrDeclaration, name)
		}
		if own[d.Name] {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrDeclaration, name, d.Name)
		}
		if d.Field == nil {
			return nil, fmt.Errorf("%w: %s.%s has no field", ErrDeclaration, name, d.Name)
		}
		if err := d.Field.validate(); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, d.Name, err)
		}
		own[d.Name] = true
		if _, inherited := t.fields[d.Name]; !inherited {
			t.order = append(t.order, d.Name)
		}
		f := d.Field
		if ef, ok := f.(*EmbeddedField); ok {
			ef = ef.copyFor(name)
			refs = append(refs, ef.ref.slots()...)
			f = ef
		}
		t.fields[d.Name] = f
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil, fmt.Errorf("%w: cannot register %s", ErrSealed, name)
	}
	if _, exists := r.types[name]; exists {
		return nil, fmt.Errorf("%w: %s already registered", ErrDeclaration, name)
	}

	r.types[name] = t
	r.order = append(r.order, t)

	for _, s := range refs {
		if s.bound() {
			continue
		}
		if target, ok := r.lookup(s.name); ok {
			s.bind(target)
			continue
		}
		r.pending[s.name] = append(r.pending[s.name], s)
	}

	for _, s := range r.pending[name] {
		s.bind(t)
	}
	delete(r.pending, name)

	return t, nil
}

// MustRegister is like Register but panics on error. It is intended for
// package-level type declarations.
func (r *Registry) MustRegister(def Definition) *Type {
	t, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[normalizeName(name)]
	return t, ok
}

// Import resolves name against the registry, then its importer. It makes a
// Registry usable as the Importer of another one.
func (r *Registry) Import(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.lookup(normalizeName(name)); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolved, name)
}

// lookup must be called with r.mu held.
func (r *Registry) lookup(name string) (*Type, bool) {
	if t, ok := r.types[name]; ok {
		return t, true
	}
	if r.importer != nil {
		if t, err := r.importer.Import(name); err == nil && t != nil {
			return t, true
		}
	}
	return nil, false
}

// Pending returns the sorted names still awaited by named references.
func (r *Registry) Pending() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pendingNames()
}

func (r *Registry) pendingNames() []string {
	names := make([]string, 0, len(r.pending))
	for name := range r.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seal retries pending references against the importer, then fails with
// ErrUnresolved if any remain. A sealed registry accepts no new types.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.importer != nil {
		for name, slots := range r.pending {
			t, err := r.importer.Import(name)
			if err != nil || t == nil {
				continue
			}
			for _, s := range slots {
				s.bind(t)
			}
			delete(r.pending, name)
		}
	}
	if len(r.pending) > 0 {
		return fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(r.pendingNames(), ", "))
	}
	r.sealed = true
	return nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, len(r.order))
	copy(out, r.order)
	return out
}

// normalizeName turns "pkg:Type" into "pkg.Type".
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), ":", ".")
}

// qualify resolves ref relative to the namespace of the declaring type.
func qualify(owner, ref string) string {
	ref = normalizeName(ref)
	if strings.Contains(ref, ".") {
		return ref
	}
	if i := strings.LastIndexByte(owner, '.'); i >= 0 {
		return owner[:i+1] + ref
	}
	return ref
}
