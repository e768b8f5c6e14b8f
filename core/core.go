// Package core runs the change-to-tests pipeline and records its history.
package core

import (
	"context"
	"time"

	"github.com/huangsam/impacted/core/resolve"
	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/internal/outwriter"
	"github.com/huangsam/impacted/schema"
)

// ExecuteRun reads the change stream, resolves related tests, and prints
// the result in the configured output format.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, input contract.InputSource, logger contract.Logger) error {
	result, err := GetRunResult(ctx, cfg, mgr, input, logger)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRun(result, cfg)
}

// GetRunResult performs one run without printing it. The resolver is backed
// by the parse store of mgr, and the run is recorded in the history store
// when one is configured. History failures are logged, never returned.
func GetRunResult(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, input contract.InputSource, logger contract.Logger) (*schema.RunResult, error) {
	var parseStore contract.CacheStore
	var historyStore contract.HistoryStore
	if mgr != nil {
		parseStore = mgr.GetParseStore()
		historyStore = mgr.GetHistoryStore()
	}

	orch, err := NewOrchestrator(RunContext{
		Config:   cfg,
		WorkDir:  cfg.WorkDir,
		Resolver: resolve.NewGraphResolver(parseStore, logger),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return runWithHistory(ctx, orch, input, historyStore, logger)
}

// runWithHistory wraps orch.Run with history tracking.
func runWithHistory(ctx context.Context, orch *Orchestrator, input contract.InputSource, store contract.HistoryStore, logger contract.Logger) (*schema.RunResult, error) {
	result, runErr := orch.Run(ctx, input)
	if store == nil || result == nil {
		return result, runErr
	}
	if logger == nil {
		logger = discardLogger{}
	}

	cfg := orch.rc.Config
	configParams := map[string]any{
		"git_root":     cfg.GitRoot,
		"entry_point":  cfg.EntryPoint,
		"search_dir":   cfg.SearchDir,
		"input_format": string(cfg.InputFormat),
		"base_ref":     cfg.BaseRef,
		"target_ref":   cfg.TargetRef,
		"workers":      cfg.Workers,
	}
	if err := store.BeginRun(result.RunID, result.StartedAt, configParams); err != nil {
		logger.Warn("Run tracking initialization failed", "run_id", result.RunID, "error", err)
		return result, runErr
	}

	if result.Resolution != nil {
		for _, test := range result.Resolution.Tests {
			if err := store.RecordTest(result.RunID, test); err != nil {
				logger.Warn("Run tracking failed for RecordTest", "test", test.Path, "error", err)
			}
		}
	}

	endTime := result.StartedAt.Add(result.Duration)
	if endTime.IsZero() || result.Duration <= 0 {
		endTime = time.Now()
	}
	if err := store.EndRun(result.RunID, endTime, len(result.ChangeSet), result.TestCount(), result.State); err != nil {
		logger.Warn("Failed to finalize run tracking", "run_id", result.RunID, "error", err)
	}
	return result, runErr
}
