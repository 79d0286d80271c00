package mutation

import "github.com/bassista/go_quill/internal/querycache"

// Tx records the optimistic writes of one mutation. Every write is a cache
// layer owned by the mutation, so settling removes exactly this mutation's
// transforms and leaves those of other in-flight mutations in place.
type Tx struct {
	cache   *querycache.Cache
	owner   uint64
	touched []querycache.Key
	seen    map[string]bool
}

func newTx(cache *querycache.Cache, owner uint64) *Tx {
	return &Tx{cache: cache, owner: owner, seen: make(map[string]bool)}
}

// Write layers updater on key. A miss, or an updater that declines, records
// nothing.
func (tx *Tx) Write(key querycache.Key, updater querycache.Updater) bool {
	if _, ok := tx.cache.Push(key, tx.owner, updater); !ok {
		return false
	}
	if s := key.String(); !tx.seen[s] {
		tx.seen[s] = true
		tx.touched = append(tx.touched, key)
	}
	return true
}

// Keys lists the cached keys in the families of filters.
func (tx *Tx) Keys(filters ...querycache.Key) []querycache.Key {
	return tx.cache.Keys(filters...)
}

// Touched lists the keys written so far.
func (tx *Tx) Touched() []querycache.Key {
	return append([]querycache.Key(nil), tx.touched...)
}

// settle pops this mutation's layers, folding them into the confirmed value
// when the server accepted the write. It returns how many keys still carry
// layers of other mutations.
func (tx *Tx) settle(confirm bool) int {
	overlapping := 0
	for _, k := range tx.touched {
		if remaining, ok := tx.cache.Pop(k, tx.owner, confirm); ok && remaining > 0 {
			overlapping++
		}
	}
	return overlapping
}
