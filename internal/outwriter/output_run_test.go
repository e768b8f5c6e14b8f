package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRunResult() *schema.RunResult {
	return &schema.RunResult{
		RunID:         "run-1",
		State:         schema.StateDone,
		ProjectDir:    "/repo",
		StreamPresent: true,
		ChangeSet:     []string{"/repo/src/util/b.ts"},
		Resolution: &schema.Resolution{
			EntryPoint:   "/repo/src/index.ts",
			SearchDir:    "/repo",
			FilesScanned: 9,
			Tests: []schema.RelatedTest{
				{
					Path:  "/repo/src/__tests__/app.ts",
					Via:   "/repo/src/util/b.ts",
					Chain: []string{"/repo/src/__tests__/app.ts", "/repo/src/App.tsx", "/repo/src/util/b.ts"},
					Depth: 2,
				},
				{
					Path:  "/repo/src/util/b.test.ts",
					Via:   "/repo/src/util/b.ts",
					Chain: []string{"/repo/src/util/b.test.ts", "/repo/src/util/b.ts"},
					Depth: 1,
				},
			},
		},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  120 * time.Millisecond,
	}
}

func TestWriteRunResult_Table(t *testing.T) {
	cfg := &contract.Config{
		GitRoot:      "/repo",
		Output:       schema.TextOut,
		Width:        200,
		Workers:      4,
		CacheBackend: schema.SQLiteBackend,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRunResult(&buf, sampleRunResult(), cfg))

	out := buf.String()
	assert.Contains(t, out, "src/__tests__/app.ts")
	assert.NotContains(t, out, "/repo/src/__tests__/app.ts", "paths are shown relative to the git root")
	assert.Contains(t, out, contract.IndirectValue)
	assert.Contains(t, out, contract.DirectValue)
	assert.Contains(t, out, "Found 2 related tests for 1 changed files (scanned 9 files)")
	assert.Contains(t, out, "Run completed in 120ms with 4 workers. Cache backend: sqlite")
}

func TestWriteRunResult_TableWithoutStream(t *testing.T) {
	var buf bytes.Buffer
	result := &schema.RunResult{State: schema.StateDone}
	require.NoError(t, WriteRunResult(&buf, result, &contract.Config{Output: schema.TextOut}))
	assert.Equal(t, "No change stream on stdin, nothing to resolve\n", buf.String())
}

func TestWriteRunResult_TableNoTests(t *testing.T) {
	var buf bytes.Buffer
	result := &schema.RunResult{
		State:         schema.StateDone,
		StreamPresent: true,
		ChangeSet:     []string{},
		Resolution:    &schema.Resolution{FilesScanned: 3},
	}
	require.NoError(t, WriteRunResult(&buf, result, &contract.Config{Output: schema.TextOut, Width: 100}))
	assert.Contains(t, buf.String(), "Found 0 related tests for 0 changed files (scanned 3 files)")
}

func TestWriteRunResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRunResult(&buf, sampleRunResult(), &contract.Config{Output: schema.JSONOut}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "done", got["state"])
	assert.Equal(t, true, got["stream_present"])

	res, ok := got["resolution"].(map[string]any)
	require.True(t, ok)
	tests, ok := res["tests"].([]any)
	require.True(t, ok)
	assert.Len(t, tests, 2)
}

func TestWriteRunResult_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRunResult(&buf, sampleRunResult(), &contract.Config{Output: schema.CSVOut}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"test", "via", "depth", "label", "chain"}, records[0])
	assert.Equal(t, []string{
		"/repo/src/util/b.test.ts",
		"/repo/src/util/b.ts",
		"1",
		contract.DirectValue,
		"/repo/src/util/b.test.ts > /repo/src/util/b.ts",
	}, records[2])
}

func TestWriteRunResult_CSVFailedRun(t *testing.T) {
	var buf bytes.Buffer
	result := &schema.RunResult{State: schema.StateFailed, StreamPresent: true}
	require.NoError(t, WriteRunResult(&buf, result, &contract.Config{Output: schema.CSVOut}))
	assert.Equal(t, "test,via,depth,label,chain\n", buf.String())
}

func TestPrintRunResult_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.csv")
	cfg := &contract.Config{Output: schema.CSVOut, OutputFile: out}
	require.NoError(t, NewOutWriter().WriteRun(sampleRunResult(), cfg))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test,via,depth,label,chain")
}

func TestDisplayPath(t *testing.T) {
	assert.Equal(t, "src/a.ts", displayPath("/repo", "/repo/src/a.ts"))
	assert.Equal(t, "/elsewhere/a.ts", displayPath("/repo", "/elsewhere/a.ts"))
	assert.Equal(t, "/repo/a.ts", displayPath("", "/repo/a.ts"))
}
