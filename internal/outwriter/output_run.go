package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// runCSVHeader is the column layout of CSV output.
var runCSVHeader = []string{"test", "via", "depth", "label", "chain"}

// PrintRunResult writes the result to the configured output file, or stdout.
func PrintRunResult(result *schema.RunResult, cfg *contract.Config) error {
	var msg string
	switch cfg.Output {
	case schema.JSONOut:
		msg = "Wrote JSON"
	case schema.CSVOut:
		msg = "Wrote CSV"
	default:
		msg = "Wrote table"
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteRunResult(w, result, cfg)
	}, msg)
}

// WriteRunResult outputs the run result, dispatching based on the output format configured.
func WriteRunResult(w io.Writer, result *schema.RunResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, result); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeRunCSV(w, result); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeRunTable(w, result, cfg)
	}
	return nil
}

// writeRunTable generates and writes the human-readable table.
func writeRunTable(w io.Writer, result *schema.RunResult, cfg *contract.Config) error {
	if !result.StreamPresent {
		_, err := fmt.Fprintln(w, "No change stream on stdin, nothing to resolve")
		return err
	}

	tests := runTests(result)
	if len(tests) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"#", "Test", "Via", "Depth", "Label"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		pathWidth := GetMaxTablePathWidth(cfg)
		label := contract.GetPlainLabel
		if cfg.UseColors {
			label = contract.GetColorLabel
		}

		var data [][]string
		for i, t := range tests {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncatePath(displayPath(cfg.GitRoot, t.Path), pathWidth),
				contract.TruncatePath(displayPath(cfg.GitRoot, t.Via), pathWidth),
				strconv.Itoa(t.Depth),
				label(t.Depth),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	scanned := 0
	if result.Resolution != nil {
		scanned = result.Resolution.FilesScanned
	}
	if _, err := fmt.Fprintf(w, "Found %d related tests for %d changed files (scanned %d files)\n", len(tests), len(result.ChangeSet), scanned); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Run completed in %v with %d workers. Cache backend: %s\n", result.Duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeRunCSV writes one row per related test. Chains are joined with " > ".
func writeRunCSV(w io.Writer, result *schema.RunResult) error {
	return writeCSVWithHeader(w, runCSVHeader, func(cw *csv.Writer) error {
		for _, t := range runTests(result) {
			rec := []string{
				t.Path,
				t.Via,
				strconv.Itoa(t.Depth),
				contract.GetPlainLabel(t.Depth),
				strings.Join(t.Chain, " > "),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func runTests(result *schema.RunResult) []schema.RelatedTest {
	if result == nil || result.Resolution == nil {
		return nil
	}
	return result.Resolution.Tests
}

// displayPath shortens p to be relative to root when it lies under it.
func displayPath(root, p string) string {
	if root == "" {
		return p
	}
	rel, err := filepath.Rel(filepath.FromSlash(root), filepath.FromSlash(p))
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return filepath.ToSlash(rel)
}
