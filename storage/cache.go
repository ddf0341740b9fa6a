package storage

import (
	"go.uber.org/zap"
)

// VersionKey holds the installed-version marker.
const VersionKey = "app_version"

// Keys preserved by ClearProjectData. Everything else in the store is
// considered app data and fair game for a wipe.
var keepKeys = map[string]bool{
	VersionKey:         true,
	"user_preferences": true,
}

// CacheManager wipes stale application storage when the installed version
// changes. The repository tolerates these wipes happening at any time: an
// empty collection is always a valid state.
type CacheManager struct {
	store   KVStore
	version string
	log     *zap.Logger
}

func NewCacheManager(store KVStore, version string, log *zap.Logger) *CacheManager {
	return &CacheManager{store: store, version: version, log: log}
}

// HasVersionChanged reports whether the stored marker differs from the
// installed version.
func (c *CacheManager) HasVersionChanged() bool {
	v, _ := c.store.Get(VersionKey)
	return v != c.version
}

// Initialize runs at startup: on a version change it clears all app data
// (settings excepted) and rewrites the marker; otherwise it only refreshes
// the marker.
func (c *CacheManager) Initialize() {
	if c.HasVersionChanged() {
		c.log.Info("app version changed, clearing stale storage",
			zap.String("version", c.version))
		c.ClearProjectData()
	}
	if err := c.store.Set(VersionKey, c.version); err != nil {
		c.log.Error("write version marker failed", zap.Error(err))
	}
}

// ClearProjectData removes every key except the version marker and user
// settings.
func (c *CacheManager) ClearProjectData() {
	for _, k := range c.store.Keys() {
		if keepKeys[k] {
			continue
		}
		c.store.Remove(k)
	}
}

// Version returns the installed application version.
func (c *CacheManager) Version() string {
	return c.version
}
