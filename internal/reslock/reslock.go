// Package reslock implements per-resource mutual exclusion for the pipeline: two
// simultaneous stage operations for the same resource_id must not interleave their
// writes, and the second caller simply waits rather than erroring.
package reslock

import "sync"

// entry is one resource's lock plus a reference count so Unlock can free the map slot
// once nobody else is waiting on it.
type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed hands out one *sync.Mutex-equivalent per key, lazily created and garbage
// collected once its last holder releases it. The zero value is ready to use.
type Keyed struct {
	mapMu   sync.Mutex
	entries map[string]*entry
}

// New constructs a ready-to-use Keyed lock registry.
func New() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Lock blocks until the caller holds the lock for key. Must be paired with Unlock.
func (k *Keyed) Lock(key string) {
	k.mapMu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*entry)
	}
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mapMu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock held for key. Unlocking a key that was never locked panics,
// the same contract sync.Mutex gives callers that misuse it.
func (k *Keyed) Unlock(key string) {
	k.mapMu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mapMu.Unlock()
		panic("reslock: Unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mapMu.Unlock()

	e.mu.Unlock()
}

// WithLock runs fn while holding key's lock, releasing it even if fn panics.
func (k *Keyed) WithLock(key string, fn func()) {
	k.Lock(key)
	defer k.Unlock(key)
	fn()
}
