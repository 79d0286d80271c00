package querycache

import "context"

// Get returns the cached value of key as T.
func Get[T any](c *Cache, key Key) (T, bool) {
	var zero T
	res, ok := c.Peek(key)
	if !ok {
		return zero, false
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Update applies fn to the cached T of key. A miss, or a value of another
// type, leaves the cache untouched.
func Update[T any](c *Cache, key Key, fn func(T) T) (uint64, bool) {
	return c.Write(key, Typed(fn))
}

// UpdateMatching applies fn to every cached T in the family of filter.
func UpdateMatching[T any](c *Cache, filter Key, fn func(T) T) int {
	return c.WriteMatching(filter, Typed(fn))
}

// Set stores v under key whether or not the key was cached.
func Set[T any](c *Cache, key Key, v T) uint64 {
	version, _ := c.Write(key, func(any, bool) (any, bool) { return v, true })
	return version
}

// FetchAs is Fetch for a typed fetcher.
func FetchAs[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	var fn FetchFunc
	if fetch != nil {
		fn = func(ctx context.Context) (any, error) { return fetch(ctx) }
	}
	v, err := c.Fetch(ctx, key, fn)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, nil
	}
	return out, nil
}

// Typed lifts fn into an Updater that skips misses and values of other types.
func Typed[T any](fn func(T) T) Updater {
	return func(current any, exists bool) (any, bool) {
		if !exists {
			return nil, false
		}
		v, ok := current.(T)
		if !ok {
			return nil, false
		}
		return fn(v), true
	}
}
