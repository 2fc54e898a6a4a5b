// Package store maps loosely-typed nested documents onto declared, typed fields.
//
// Barrel lets a program address a deeply nested key/value document (as
// returned by a remote JSON API, a YAML file or a DynamoDB item) through
// named fields instead of raw key lookups. The declared shape may diverge from
// the real one: keys can be renamed, nesting levels synthesized or skipped,
// and sub-objects wrapped into typed stores chosen per element.
//
// # Key Features
//
//   - Compound target paths ("address:city") resolved lazily on every read
//   - Typed fields with coercion and defaults (boolean, date, integer, float,
//     long integer, split)
//   - Nested stores and collections sharing the parent's backing document
//   - Forward, self and cyclic references between types declared by name
//   - Polymorphic elements selected by a discriminator value
//
// # Declaring Types
//
// Types are registered on an explicit [Registry]:
//
//	reg := store.NewRegistry()
//	user := reg.MustRegister(store.Definition{
//	    Name: "shop.User",
//	    Fields: []store.Declaration{
//	        store.Declare("name", store.NewField("user_name")),
//	        store.Declare("city", store.NewField("address:city")),
//	        store.Declare("active", store.NewBoolField("active", store.WithDefault(false))),
//	        store.Declare("orders", store.EmbedMany("orders", store.Named("Order"))),
//	    },
//	})
//
// "Order" is qualified to "shop.Order" and stays pending until that type is
// registered. [Registry.Seal] reports references that never resolved.
//
// # Reading and Writing
//
//	s := user.New(doc)
//	city, err := s.String("city")
//	err = s.Set("active", "true") // coerced to true before the write
//
// Writes go to the backing document; missing intermediate levels are not
// created. Embedded fields cannot be assigned.
//
// # Concurrency
//
// A [Registry] is safe for concurrent use. Registering a type binds the
// references waiting on it atomically, so stores created earlier see the
// binding on their next access. [Store] and [Collection] are not:
// they wrap caller-owned maps and must have a single writer.
//
// # Errors
//
// The package defines sentinel errors matched with errors.Is:
//
//   - [ErrLookupFailed] - a field's target is absent and has no default
//   - [ErrKeyNotFound] - a key along a target path is absent
//   - [ErrConversion] - a raw value does not fit the field type
//   - [ErrEmbeddedAssignment] - assignment to an embedded field
//   - [ErrUnresolved] - a named reference has no registered type
//   - [ErrUnsupportedVariant] - a discriminator value has no variant
package store
