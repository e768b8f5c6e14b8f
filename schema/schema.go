// Package schema holds the value types shared across impacted.
package schema

import "time"

// RelatedTest is a test file that transitively depends on a changed file.
type RelatedTest struct {
	Path  string   `json:"path"`  // Absolute path of the test file
	Via   string   `json:"via"`   // Changed file that reached this test
	Chain []string `json:"chain"` // Import chain from the test down to Via
	Depth int      `json:"depth"` // Number of import hops between the test and Via
}

// Resolution is the result handed back by an impact resolver.
// The orchestrator passes it through without looking inside.
type Resolution struct {
	EntryPoint   string        `json:"entry_point"`
	SearchDir    string        `json:"search_dir"`
	FilesScanned int           `json:"files_scanned"`
	Tests        []RelatedTest `json:"tests"`
}

// TestPaths returns the test paths in result order.
func (r *Resolution) TestPaths() []string {
	if r == nil {
		return nil
	}
	paths := make([]string, 0, len(r.Tests))
	for _, t := range r.Tests {
		paths = append(paths, t.Path)
	}
	return paths
}

// RunResult summarizes one orchestrator invocation.
type RunResult struct {
	RunID         string        `json:"run_id"`
	State         RunState      `json:"state"`
	ProjectDir    string        `json:"project_dir"`
	StreamPresent bool          `json:"stream_present"`
	ChangeSet     []string      `json:"change_set"`
	Resolution    *Resolution   `json:"resolution,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// TestCount returns the number of related tests, zero when nothing was resolved.
func (r *RunResult) TestCount() int {
	if r == nil || r.Resolution == nil {
		return 0
	}
	return len(r.Resolution.Tests)
}
