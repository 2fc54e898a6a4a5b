package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacentio/barrel/internal/cachekey"
)

// Call describes one invocation of a cached function.
type Call struct {
	// Owner is the type or package the function belongs to (e.g., "Shop").
	Owner string

	// Func is the function name (e.g., "Search").
	Func string

	// Args are the positional arguments.
	Args []any

	// Kwargs are the named arguments. They follow Args in the key, ordered by
	// name.
	Kwargs map[string]any
}

// Values returns Args followed by the Kwargs values sorted by name.
func (c Call) Values() []any {
	values := make([]any, 0, len(c.Args)+len(c.Kwargs))
	values = append(values, c.Args...)
	names := make([]string, 0, len(c.Kwargs))
	for name := range c.Kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values = append(values, c.Kwargs[name])
	}
	return values
}

// KeyFunc derives the cache key of a call.
type KeyFunc func(c Call) string

// MultiKeyFunc derives the keys a Clearer deletes from the call values.
type MultiKeyFunc func(values []any) []string

// CallKey returns "Owner.Func(v1,v2,...)" with spaces in the values replaced
// by '_' and non-ASCII characters by '?'.
func CallKey(c Call) string {
	return formatKey(c.Owner, c.Func, c.Values())
}

// SlicedCallKey returns a KeyFunc using only values[i:j] of the call, for
// example to leave a session token out of the key. A negative j keeps every
// value from i on.
func SlicedCallKey(i, j int) KeyFunc {
	return func(c Call) string {
		values := c.Values()
		lo, hi := clamp(i, len(values)), len(values)
		if j >= 0 {
			hi = clamp(j, len(values))
		}
		if hi < lo {
			hi = lo
		}
		return formatKey(c.Owner, c.Func, values[lo:hi])
	}
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func formatKey(owner, fn string, values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%s.%s(%s)", owner, fn, cachekey.Safe(strings.Join(parts, ",")))
}
