package contract

import (
	"time"

	"github.com/huangsam/impacted/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetParseStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for recording runs and the tests they selected.
type HistoryStore interface {
	// BeginRun records the start of a run
	BeginRun(runID string, startTime time.Time, configParams map[string]any) error

	// EndRun updates the run with completion data
	EndRun(runID string, endTime time.Time, changedFiles int, relatedTests int, state schema.RunState) error

	// RecordTest stores one related test of a run
	RecordTest(runID string, test schema.RelatedTest) error

	// ListRuns returns every recorded run, newest first
	ListRuns() ([]schema.RunRecord, error)

	// ListTests returns every recorded test row
	ListTests() ([]schema.TestRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
