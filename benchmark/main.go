// Package main provides a performance benchmarking tool for the impacted CLI.
// It measures test selection times across JavaScript and TypeScript repositories of
// different sizes, running each case multiple times, treating the first successful
// cached run as cold and averaging the rest as warm, and writes a CSV summary.
//
// Prerequisites:
// - impacted binary installed and available in PATH
// - Test repositories cloned to the specified base directory
// - Git repositories: zod, date-fns, vite
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Repository  string
	Case        string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase    string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	TestRepos   []string
	EntryPoints map[string]string
	ChangedFile map[string]string
	RepoRefs    map[string][2]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}
	repoBase := os.Args[1]

	config := BenchmarkConfig{
		RepoBase:    repoBase,
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
		TestRepos:   []string{"zod", "date-fns", "vite"},
		EntryPoints: map[string]string{
			"zod":      "packages/zod/src/index.ts",
			"date-fns": "src/index.ts",
			"vite":     "packages/vite/src/node/index.ts",
		},
		ChangedFile: map[string]string{
			"zod":      "packages/zod/src/v4/core/util.ts",
			"date-fns": "src/toDate/index.ts",
			"vite":     "packages/vite/src/node/utils.ts",
		},
		RepoRefs: map[string][2]string{
			"zod":      {"v3.24.0", "v3.25.0"},
			"date-fns": {"v3.6.0", "v4.0.0"},
			"vite":     {"v6.0.0", "v6.1.0"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("impacted", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the impacted binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("impacted"); err != nil {
		return fmt.Errorf("impacted binary not found in PATH")
	}

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks executes all benchmark cases across configured repositories
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.TestRepos), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)

		repoPath := filepath.Join(config.RepoBase, repo)
		entry := config.EntryPoints[repo]

		// Single changed file piped on stdin
		if changed, ok := config.ChangedFile[repo]; ok {
			desc := fmt.Sprintf("single change (%s)", changed)
			result := runBenchmarkSuite(config, repo, repoPath, "stdin", desc, []string{"run", entry}, changed+"\n")
			results = append(results, result)
		}

		// Every file changed between two releases
		if refs, ok := config.RepoRefs[repo]; ok {
			args := []string{"run", entry, "--base-ref", refs[0], "--target-ref", refs[1]}
			desc := fmt.Sprintf("release diff (%s -> %s)", refs[0], refs[1])
			result := runBenchmarkSuite(config, repo, repoPath, "refs", desc, args, "")
			results = append(results, result)
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a case
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath, name, description string, args []string, stdin string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, repo)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, repoPath, args, stdin, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:  repo,
		Case:        name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes an impacted command multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, repoPath string, baseArgs []string, stdin, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, baseArgs...)
	args = append(args, "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers))

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("impacted", args...)
		cmd.Dir = repoPath
		cmd.Stdin = strings.NewReader(stdin)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates a completed run
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Run completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/impacted_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"repo", "case", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Case, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCaseSummary(results, "stdin", "Single Change:")
	printCaseSummary(results, "refs", "Release Diff:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCaseSummary displays results for a specific case
func printCaseSummary(results []BenchmarkResult, name, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Case == name {
			fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
