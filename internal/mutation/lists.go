package mutation

import (
	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/querycache"
)

// Every helper here returns a new slice; cached slices are never modified in
// place.

func listUpdater[T any](fn func([]T) ([]T, bool)) querycache.Updater {
	return func(current any, exists bool) (any, bool) {
		if !exists {
			return nil, false
		}
		items, ok := current.([]T)
		if !ok {
			return nil, false
		}
		return fn(items)
	}
}

func detailUpdater[T any](fn func(T) (T, bool)) querycache.Updater {
	return func(current any, exists bool) (any, bool) {
		if !exists {
			return nil, false
		}
		item, ok := current.(T)
		if !ok {
			return nil, false
		}
		return fn(item)
	}
}

func prepend[T any](item T) func([]T) ([]T, bool) {
	return func(items []T) ([]T, bool) {
		out := make([]T, 0, len(items)+1)
		out = append(out, item)
		return append(out, items...), true
	}
}

func indexOf[T model.Entity](items []T, key string) int {
	for i, item := range items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// replaceKey swaps the entity under key for with. Another copy of with, e.g.
// from a refetch that already saw it, is dropped.
func replaceKey[T model.Entity](key string, with T) func([]T) ([]T, bool) {
	return func(items []T) ([]T, bool) {
		i := indexOf(items, key)
		if i < 0 {
			return nil, false
		}
		out := make([]T, 0, len(items))
		for j, item := range items {
			switch {
			case j == i:
				out = append(out, with)
			case item.Key() == with.Key():
			default:
				out = append(out, item)
			}
		}
		return out, true
	}
}

func patchKey[T model.Entity](key string, patch model.Patch[T]) func([]T) ([]T, bool) {
	return func(items []T) ([]T, bool) {
		i := indexOf(items, key)
		if i < 0 {
			return nil, false
		}
		out := append([]T(nil), items...)
		out[i] = patch.Apply(out[i])
		return out, true
	}
}

func removeKey[T model.Entity](key string) func([]T) ([]T, bool) {
	return func(items []T) ([]T, bool) {
		i := indexOf(items, key)
		if i < 0 {
			return nil, false
		}
		out := make([]T, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...), true
	}
}
