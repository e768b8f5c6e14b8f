package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/impacted/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteHistory(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*HistoryStoreImpl)
}

func TestHistoryStore_SQLite(t *testing.T) {
	store := newSQLiteHistory(t)
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.BeginRun("run-old", start, map[string]any{"entry_point": "src/index.ts"}))
	require.NoError(t, store.EndRun("run-old", start.Add(250*time.Millisecond), 2, 1, schema.StateDone))
	require.NoError(t, store.RecordTest("run-old", schema.RelatedTest{Path: "/r/a.test.ts", Via: "/r/a.ts", Depth: 1}))

	require.NoError(t, store.BeginRun("run-new", start.Add(time.Hour), nil))

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	newest, oldest := runs[0], runs[1]
	assert.Equal(t, "run-new", newest.RunID)
	assert.Equal(t, string(schema.StateStart), newest.State)
	assert.Nil(t, newest.EndTime)
	assert.Nil(t, newest.DurationMs)

	assert.Equal(t, "run-old", oldest.RunID)
	assert.True(t, start.Equal(oldest.StartTime))
	require.NotNil(t, oldest.EndTime)
	require.NotNil(t, oldest.DurationMs)
	assert.Equal(t, int64(250), *oldest.DurationMs)
	assert.Equal(t, 2, oldest.ChangedFiles)
	assert.Equal(t, 1, oldest.RelatedTests)
	assert.Equal(t, string(schema.StateDone), oldest.State)
	require.NotNil(t, oldest.ConfigParams)
	assert.JSONEq(t, `{"entry_point":"src/index.ts"}`, *oldest.ConfigParams)

	tests, err := store.ListTests()
	require.NoError(t, err)
	assert.Equal(t, []schema.TestRecord{{RunID: "run-old", TestPath: "/r/a.test.ts", Via: "/r/a.ts", Depth: 1}}, tests)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, "run-new", status.LastRunID)
	assert.True(t, start.Add(time.Hour).Equal(status.LastRunTime))
	assert.True(t, start.Equal(status.OldestRunTime))
	assert.Equal(t, 1, status.TotalTests)
	assert.Equal(t, map[string]int64{runsTable: 2, runTestsTable: 1}, status.TableSizes)
}

func TestHistoryStore_Errors(t *testing.T) {
	store := newSQLiteHistory(t)
	now := time.Now()

	assert.Error(t, store.EndRun("unknown", now, 0, 0, schema.StateDone), "ending a run that never began")

	require.NoError(t, store.BeginRun("dup", now, nil))
	assert.Error(t, store.BeginRun("dup", now, nil), "run ids are unique")

	test := schema.RelatedTest{Path: "/r/x.test.ts", Via: "/r/x.ts"}
	require.NoError(t, store.RecordTest("dup", test))
	assert.Error(t, store.RecordTest("dup", test), "a test is recorded once per run")

	assert.ErrorContains(t, store.BeginRun("bad", now, map[string]any{"f": func() {}}), "marshal")
}

func TestHistoryStore_None(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.BeginRun("r", time.Now(), nil))
	assert.NoError(t, store.EndRun("r", time.Now(), 1, 1, schema.StateDone))
	assert.NoError(t, store.RecordTest("r", schema.RelatedTest{Path: "x"}))

	runs, err := store.ListRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestMigrateHistory(t *testing.T) {
	t.Run("none backend", func(t *testing.T) {
		err := MigrateHistory(&bytes.Buffer{}, schema.NoneBackend, "", -1)
		assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
	})

	t.Run("sqlite up and down", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "migrate.db")
		var out bytes.Buffer

		require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, -1))
		assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 3")
		_, err := os.Stat(dbPath)
		assert.NoError(t, err)

		out.Reset()
		require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, -1))
		assert.Contains(t, out.String(), "No migration needed")

		require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, 1))
		require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, 0))
		require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, 3))
	})

	t.Run("migrated schema serves the store", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "migrate.db")
		require.NoError(t, MigrateHistory(&bytes.Buffer{}, schema.SQLiteBackend, dbPath, -1))

		store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.NoError(t, store.BeginRun("r1", time.Now(), nil))
	})
}

func TestExportHistory(t *testing.T) {
	t.Run("requires an output file", func(t *testing.T) {
		assert.Error(t, ExportHistory(&bytes.Buffer{}, newSQLiteHistory(t), ""))
	})

	t.Run("requires a store", func(t *testing.T) {
		assert.Error(t, ExportHistory(&bytes.Buffer{}, nil, "out"))
	})

	t.Run("empty history", func(t *testing.T) {
		err := ExportHistory(&bytes.Buffer{}, newSQLiteHistory(t), filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no run history")
	})

	t.Run("writes both files", func(t *testing.T) {
		store := newSQLiteHistory(t)
		now := time.Now()
		require.NoError(t, store.BeginRun("r1", now, nil))
		require.NoError(t, store.RecordTest("r1", schema.RelatedTest{Path: "/r/a.test.ts", Via: "/r/a.ts", Depth: 1}))
		require.NoError(t, store.EndRun("r1", now.Add(time.Second), 1, 1, schema.StateDone))

		base := filepath.Join(t.TempDir(), "export")
		var out bytes.Buffer
		require.NoError(t, ExportHistory(&out, store, base))

		for _, suffix := range []string{".runs.parquet", ".run_tests.parquet"} {
			info, err := os.Stat(base + suffix)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
		assert.Contains(t, out.String(), "Exported 1 runs")
		assert.Contains(t, out.String(), "Exported 1 test records")
	})
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:       "sqlite",
		Connected:     true,
		TotalRuns:     1,
		LastRunID:     "r1",
		LastRunTime:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		OldestRunTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		TotalTests:    4,
		TableSizes:    map[string]int64{runTestsTable: 4, runsTable: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "Last Run ID: r1\n")
	assert.Contains(t, out, "Total Tests Selected: 4\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(runTestsTable)), bytes.Index(buf.Bytes(), []byte("impacted_runs:")))
}
