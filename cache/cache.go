// Package cache memoizes document-returning calls.
//
// A [Cacher] wraps a call that fetches a document (typically a remote API
// response later wrapped in a store) and keeps its result in an [Engine]
// under a key derived from the call. A [Clearer] deletes the keys a write
// invalidates.
//
//	c := cache.NewCacher(engine, cache.WithDuration(time.Minute))
//	doc, err := c.Do(ctx, cache.Call{Owner: "Shop", Func: "Search", Args: []any{q}},
//	    func(ctx context.Context) (store.Document, error) { return api.Search(ctx, q) })
//
// Engine failures never fail a call: they are logged and the call falls
// through to the wrapped function.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/jacentio/barrel/store"
)

// DefaultDuration is the expiry used when none is configured.
const DefaultDuration = 10 * time.Second

// Engine stores cached documents. Implementations must be safe for
// concurrent use.
type Engine interface {
	// Get returns the document under key and whether it was found.
	Get(ctx context.Context, key string) (store.Document, bool, error)

	// Set stores doc under key for ttl. A zero ttl never expires.
	Set(ctx context.Context, key string, doc store.Document, ttl time.Duration) error

	// DeleteMany removes every key; absent keys are ignored.
	DeleteMany(ctx context.Context, keys []string) error
}

// Option configures a Cacher or a Clearer.
type Option func(*options)

type options struct {
	keygen     KeyFunc
	needsCache func(store.Document) bool
	duration   time.Duration
	logger     *slog.Logger
	metrics    *Metrics
}

// WithKeyFunc sets the key generator. Default: CallKey.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *options) { o.keygen = fn }
}

// WithNeedsCache sets the predicate deciding whether a result is stored.
// Default: every result is stored.
func WithNeedsCache(fn func(store.Document) bool) Option {
	return func(o *options) { o.needsCache = fn }
}

// WithDuration sets the expiry of stored results. Default: DefaultDuration.
func WithDuration(d time.Duration) Option {
	return func(o *options) { o.duration = d }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records request outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{duration: DefaultDuration}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keygen == nil {
		o.keygen = CallKey
	}
	if o.needsCache == nil {
		o.needsCache = func(store.Document) bool { return true }
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Cacher memoizes calls in an Engine.
type Cacher struct {
	engine Engine
	opts   options
}

// NewCacher creates a Cacher over engine.
func NewCacher(engine Engine, opts ...Option) *Cacher {
	return &Cacher{engine: engine, opts: buildOptions(opts)}
}

// Key returns the cache key of call.
func (c *Cacher) Key(call Call) string {
	return c.opts.keygen(call)
}

// Do returns the cached document for call, or runs fn and caches its result
// when the needs-cache predicate accepts it. Errors from fn are returned and
// never cached.
func (c *Cacher) Do(ctx context.Context, call Call, fn func(ctx context.Context) (store.Document, error)) (store.Document, error) {
	key := c.Key(call)

	doc, ok, err := c.engine.Get(ctx, key)
	switch {
	case err != nil:
		c.opts.logger.Warn("cache get failed", "key", key, "error", err)
		c.opts.metrics.observe(ResultError)
	case ok:
		c.opts.logger.Info("cache hit", "key", key)
		c.opts.metrics.observe(ResultHit)
		return doc, nil
	}

	doc, err = fn(ctx)
	if err != nil {
		return nil, err
	}

	if !c.opts.needsCache(doc) {
		c.opts.logger.Info("no cache", "key", key)
		c.opts.metrics.observe(ResultNoCache)
		return doc, nil
	}

	c.opts.logger.Info("cache miss", "key", key)
	c.opts.metrics.observe(ResultMiss)
	if err := c.engine.Set(ctx, key, doc, c.opts.duration); err != nil {
		c.opts.logger.Warn("cache set failed", "key", key, "error", err)
	}
	return doc, nil
}

// Load is Do with the resulting document wrapped by t.
func (c *Cacher) Load(ctx context.Context, t *store.Type, call Call, fn func(ctx context.Context) (store.Document, error)) (*store.Store, error) {
	doc, err := c.Do(ctx, call, fn)
	if err != nil {
		return nil, err
	}
	return t.New(doc), nil
}

// Clearer deletes the cache keys derived from a call.
type Clearer struct {
	engine Engine
	keygen MultiKeyFunc
	opts   options
}

// NewClearer creates a Clearer deleting the keys keygen returns.
func NewClearer(engine Engine, keygen MultiKeyFunc, opts ...Option) *Clearer {
	return &Clearer{engine: engine, keygen: keygen, opts: buildOptions(opts)}
}

// Clear deletes every key generated from the call values.
func (c *Clearer) Clear(ctx context.Context, call Call) error {
	keys := c.keygen(call.Values())
	if len(keys) == 0 {
		return nil
	}
	if err := c.engine.DeleteMany(ctx, keys); err != nil {
		return err
	}
	c.opts.logger.Info("cache clear", "keys", keys)
	c.opts.metrics.clearedKeys(len(keys))
	return nil
}
