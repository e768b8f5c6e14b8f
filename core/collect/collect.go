// Package collect turns a stream of changed file paths into a change set.
package collect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"github.com/sourcegraph/go-diff/diff"
)

// Outcome is the single result delivered by CollectAsync.
// Exactly one of Set and Err is set.
type Outcome struct {
	Set schema.ChangeSet
	Err error
}

// Collector buffers a change stream and builds a change set from it.
type Collector struct {
	gitRoot string
	filter  contract.IncludeFilter
	format  schema.InputFormat
}

// New creates a Collector. A nil filter falls back to a RuleFilter with defaults.
func New(gitRoot string, filter contract.IncludeFilter, format schema.InputFormat) *Collector {
	if filter == nil {
		filter = contract.NewRuleFilter(nil, nil, nil)
	}
	if format == "" {
		format = schema.LinesInput
	}
	return &Collector{gitRoot: gitRoot, filter: filter, format: format}
}

// Collect blocks until the stream ends, fails, or ctx is done.
func (c *Collector) Collect(ctx context.Context, r io.Reader) (schema.ChangeSet, error) {
	out := <-c.CollectAsync(ctx, r)
	return out.Set, out.Err
}

// CollectAsync starts collection and returns a channel that delivers exactly
// one Outcome and is then closed. The reader must not be used by anyone else
// until the Outcome arrives.
func (c *Collector) CollectAsync(ctx context.Context, r io.Reader) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		set, err := c.collect(ctx, r)
		out <- Outcome{Set: set, Err: err}
	}()
	return out
}

func (c *Collector) collect(ctx context.Context, r io.Reader) (schema.ChangeSet, error) {
	data, err := drain(ctx, r)
	if err != nil {
		return nil, &contract.StreamReadError{Cause: err}
	}

	var lines []string
	switch c.format {
	case schema.DiffInput:
		lines, err = diffLines(data)
		if err != nil {
			return nil, &contract.StreamReadError{Cause: err}
		}
	default:
		lines = splitLines(data)
	}
	return c.build(lines)
}

// build applies the filter to every line. The first filter failure aborts.
func (c *Collector) build(lines []string) (schema.ChangeSet, error) {
	set := schema.NewChangeSet()
	for _, line := range lines {
		ok, err := c.include(line)
		if err != nil {
			return nil, &contract.FilterEvaluationError{Line: line, Cause: err}
		}
		if ok {
			set.Add(c.gitRoot + "/" + line)
		}
	}
	return set, nil
}

// include evaluates the filter, converting a panic into an error.
func (c *Collector) include(line string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("filter panicked: %v", r)
		}
	}()
	return c.filter.Include(line)
}

// drain reads r to the end on its own goroutine so that a done context
// stops the wait. The reader goroutine exits once r returns.
func drain(ctx context.Context, r io.Reader) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		_, err := buf.ReadFrom(r)
		done <- result{data: buf.Bytes(), err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return res.data, nil
	}
}

// splitLines splits on "\n" and strips one trailing "\r" from each line.
// A final terminator yields a trailing empty line.
func splitLines(data []byte) []string {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// diffLines returns one repo-relative path per file in a unified diff.
func diffLines(data []byte) ([]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	fileDiffs, err := diff.NewMultiFileDiffReader(bytes.NewReader(data)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	lines := make([]string, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		name := fd.NewName
		if name == "" || name == "/dev/null" {
			name = fd.OrigName
		}
		if name == "" || name == "/dev/null" {
			continue
		}
		lines = append(lines, stripDiffPrefix(name))
	}
	return lines, nil
}

// stripDiffPrefix removes one git "a/" or "b/" prefix.
func stripDiffPrefix(name string) string {
	for _, prefix := range []string{"a/", "b/"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return rest
		}
	}
	return name
}
