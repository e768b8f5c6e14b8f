// Package parquet exports recorded run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/impacted/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single recorded run. It maps to the impacted_runs table.
type Run struct {
	// RunID is the UUID of the run
	RunID string `parquet:"run_id,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run reached a terminal state (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the run duration in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	ChangedFiles int32  `parquet:"changed_files,snappy"`
	RelatedTests int32  `parquet:"related_tests,snappy"`
	State        string `parquet:"run_state,snappy,dict"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunTest represents one related test selected by a run. It maps to the
// impacted_run_tests table.
type RunTest struct {
	RunID    string `parquet:"run_id,snappy,dict"`
	TestPath string `parquet:"test_path,snappy"`
	Via      string `parquet:"via_path,snappy"`
	Depth    int32  `parquet:"depth,snappy"`
}

// write streams rows of any struct type into a new Parquet file.
func write[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return write(data, outputPath)
}

// WriteRunTestsParquet writes run tests to a Parquet file.
func WriteRunTestsParquet(data []RunTest, outputPath string) error {
	return write(data, outputPath)
}

// ConvertRunRecords converts stored run rows for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.DurationMs,
			ChangedFiles:  int32(record.ChangedFiles),
			RelatedTests:  int32(record.RelatedTests),
			State:         record.State,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertTestRecords converts stored test rows for Parquet export.
func ConvertTestRecords(records []schema.TestRecord) []RunTest {
	result := make([]RunTest, len(records))
	for i, record := range records {
		result[i] = RunTest{
			RunID:    record.RunID,
			TestPath: record.TestPath,
			Via:      record.Via,
			Depth:    int32(record.Depth),
		}
	}
	return result
}
