package schema

import "time"

// CacheStatus represents the status of the parse cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalTests    int              `json:"total_tests"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the impacted_runs table.
type RunRecord struct {
	RunID        string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int64
	ChangedFiles int
	RelatedTests int
	State        string
	ConfigParams *string
}

// TestRecord represents a row from the impacted_run_tests table.
type TestRecord struct {
	RunID    string
	TestPath string
	Via      string
	Depth    int
}
