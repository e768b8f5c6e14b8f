package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
)

// Table names for run history.
const (
	runsTable     = "impacted_runs"
	runTestsTable = "impacted_run_tests"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the run history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runTestsTable, getCreateRunTestsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for impacted_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				changed_files INT NOT NULL DEFAULT 0,
				related_tests INT NOT NULL DEFAULT 0,
				run_state VARCHAR(20) NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				changed_files INT NOT NULL DEFAULT 0,
				related_tests INT NOT NULL DEFAULT 0,
				run_state TEXT NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				changed_files INTEGER NOT NULL DEFAULT 0,
				related_tests INTEGER NOT NULL DEFAULT 0,
				run_state TEXT NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunTestsQuery returns the CREATE TABLE query for impacted_run_tests.
func getCreateRunTestsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runTestsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) NOT NULL,
				test_path VARCHAR(512) NOT NULL,
				via_path VARCHAR(512) NOT NULL,
				depth INT NOT NULL,
				PRIMARY KEY (run_id, test_path)
			);
		`, quotedTableName)

	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				test_path TEXT NOT NULL,
				via_path TEXT NOT NULL,
				depth INTEGER NOT NULL,
				PRIMARY KEY (run_id, test_path)
			);
		`, quotedTableName)
	}
}

// BeginRun records the start of a run.
func (hs *HistoryStoreImpl) BeginRun(runID string, startTime time.Time, configParams map[string]any) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, start_time, run_state, config_params) VALUES (%s)`,
		quoteTableName(runsTable, hs.backend), placeholders(hs.backend, 4))
	_, err = hs.db.Exec(query, runID, formatTime(startTime, hs.backend), string(schema.StateStart), string(configJSON))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", runID, err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID string, endTime time.Time, changedFiles int, relatedTests int, state schema.RunState) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`,
		quotedTableName, placeholder(hs.backend, 1)), runID)
	startTime, err := hs.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	var query string
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, changed_files = $3, related_tests = $4, run_state = $5 WHERE run_id = $6`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, changed_files = ?, related_tests = ?, run_state = ? WHERE run_id = ?`, quotedTableName)
	}
	if _, err := hs.db.Exec(query, formatTime(endTime, hs.backend), durationMs, changedFiles, relatedTests, string(state), runID); err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	return nil
}

// RecordTest stores one related test of a run.
func (hs *HistoryStoreImpl) RecordTest(runID string, test schema.RelatedTest) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, test_path, via_path, depth) VALUES (%s)`,
		quoteTableName(runTestsTable, hs.backend), placeholders(hs.backend, 4))
	if _, err := hs.db.Exec(query, runID, test.Path, test.Via, test.Depth); err != nil {
		return fmt.Errorf("failed to insert test %s: %w", test.Path, err)
	}
	return nil
}

// scanTime reads a single time column, which SQLite stores as text.
func (hs *HistoryStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if hs.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return parseTime(s)
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		runs, err := hs.ListRuns()
		if err != nil {
			return status, err
		}
		status.LastRunID = runs[0].RunID
		status.LastRunTime = runs[0].StartTime
		status.OldestRunTime = runs[len(runs)-1].StartTime

		row := hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(related_tests), 0) FROM %s", quotedRuns))
		if err := row.Scan(&status.TotalTests); err != nil {
			return status, fmt.Errorf("failed to get total tests: %w", err)
		}
	}

	for _, table := range []string{runsTable, runTestsTable} {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// ListRuns retrieves all runs from the store, newest first.
func (hs *HistoryStoreImpl) ListRuns() ([]schema.RunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, changed_files, related_tests, run_state, config_params
		FROM %s ORDER BY start_time DESC, run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch hs.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &startTimeStr, &endTimeStr, &record.DurationMs,
				&record.ChangedFiles, &record.RelatedTests, &record.State, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			startTime, err := parseTime(startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := parseTime(*endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.DurationMs,
				&record.ChangedFiles, &record.RelatedTests, &record.State, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// ListTests retrieves all recorded test rows.
func (hs *HistoryStoreImpl) ListTests() ([]schema.TestRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, test_path, via_path, depth FROM %s ORDER BY run_id, test_path`,
		quoteTableName(runTestsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run tests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TestRecord
	for rows.Next() {
		var record schema.TestRecord
		if err := rows.Scan(&record.RunID, &record.TestPath, &record.Via, &record.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan run test: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run tests: %w", err)
	}
	return results, nil
}
