// Package iocache is for caching I/O calls and recording run history.
package iocache

import (
	"sync"

	"github.com/huangsam/impacted/internal/contract"
)

// CacheStoreManager manages the parse cache and history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	parse        contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetParseStore returns the parse cache store, or nil when caching is off.
func (mgr *CacheStoreManager) GetParseStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.parse
}

// GetHistoryStore returns the history store, or nil when history is off.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
