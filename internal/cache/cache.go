package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// ReadThrough fills a Cache on misses and collapses concurrent loads of the
// same key into one call.
type ReadThrough[T any] struct {
	cache Cache[T]
	group singleflight.Group
	onHit func(hit bool)
}

// NewReadThrough wraps c. observe, when non-nil, is told about every lookup.
func NewReadThrough[T any](c Cache[T], observe func(hit bool)) *ReadThrough[T] {
	return &ReadThrough[T]{cache: c, onHit: observe}
}

// Get returns the cached value for key or calls load once for all
// concurrent callers. Errors are not cached.
func (r *ReadThrough[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := r.cache.Get(key); ok {
		r.observe(true)
		return v, nil
	}
	r.observe(false)

	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.cache.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		r.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops key so the next Get reloads it.
func (r *ReadThrough[T]) Invalidate(key string) {
	r.group.Forget(key)
	r.cache.Delete(key)
}

func (r *ReadThrough[T]) observe(hit bool) {
	if r.onHit != nil {
		r.onHit(hit)
	}
}
