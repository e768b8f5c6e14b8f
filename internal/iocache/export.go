package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/internal/parquet"
)

// ExportHistory writes the recorded runs and their tests to two Parquet
// files named after outputFile.
func ExportHistory(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not configured. Set --history-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)

	runs, err := store.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	tests, err := store.ListTests()
	if err != nil {
		return fmt.Errorf("failed to retrieve run tests: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	testsFile := outputFile + ".run_tests.parquet"
	if err := parquet.WriteRunTestsParquet(parquet.ConvertTestRecords(tests), testsFile); err != nil {
		return fmt.Errorf("failed to write run tests: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d test records to: %s\n", len(tests), testsFile)

	return nil
}
