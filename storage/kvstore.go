// Package storage implements the project persistence core: a size-budgeted
// local key/value store, the project repository on top of it, quota
// monitoring, retention (eviction and shrinking) and the autosave scheduler.
package storage

import "errors"

var (
	// ErrQuotaExceeded is returned by Set when the write would push the
	// store past its capacity ceiling.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KVStore is a synchronous string key/value store with a byte budget. It is
// shared by the whole application: project data coexists with the version
// marker, settings and anything else a feature chooses to persist.
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool)
	// Set writes key=value, replacing any previous value. Returns
	// ErrQuotaExceeded (and leaves the previous value intact) when the write
	// would exceed the capacity ceiling.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)
	// Keys returns all keys in the store, in no particular order.
	Keys() []string
	// Capacity returns the configured ceiling in bytes.
	Capacity() int64
}

// entrySize is the usage accounting rule: key length plus value length, a
// deliberate proxy that never parses values.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// StoreUsedBytes sums entrySize over every record in the store.
func StoreUsedBytes(s KVStore) int64 {
	var total int64
	for _, k := range s.Keys() {
		if v, ok := s.Get(k); ok {
			total += entrySize(k, v)
		}
	}
	return total
}
