package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/impacted/core/collect"
	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
)

// RunContext is everything a run reads. It is passed in explicitly so the
// orchestrator never consults the process working directory or a global
// log level.
type RunContext struct {
	Config   *contract.Config
	WorkDir  string
	Resolver contract.Resolver
	Logger   contract.Logger
}

// Orchestrator sequences one run: check the input, collect the change set,
// then ask the resolver exactly once.
type Orchestrator struct {
	rc        RunContext
	collector *collect.Collector
}

// NewOrchestrator validates the run context. Missing fields are reported as
// *contract.ConfigurationError before any input is read.
func NewOrchestrator(rc RunContext) (*Orchestrator, error) {
	if rc.Config == nil {
		return nil, &contract.ConfigurationError{Field: "config", Reason: "is required"}
	}
	if rc.Resolver == nil {
		return nil, &contract.ConfigurationError{Field: "resolver", Reason: "is required"}
	}
	cfg := rc.Config
	switch {
	case cfg.GitRoot == "":
		return nil, &contract.ConfigurationError{Field: "git-root", Reason: "is required"}
	case cfg.IncludeFilter == nil:
		return nil, &contract.ConfigurationError{Field: "include", Reason: "no inclusion filter configured"}
	case cfg.EntryPoint == "":
		return nil, &contract.ConfigurationError{Field: "entry-point", Reason: "is required", Err: contract.ErrNoEntryPoint}
	case cfg.SearchDir == "":
		return nil, &contract.ConfigurationError{Field: "search-dir", Reason: "is required"}
	}
	if rc.Logger == nil {
		rc.Logger = discardLogger{}
	}
	if rc.WorkDir == "" {
		rc.WorkDir = cfg.WorkDir
	}
	return &Orchestrator{
		rc:        rc,
		collector: collect.New(cfg.GitRoot, cfg.IncludeFilter, cfg.InputFormat),
	}, nil
}

// Run executes the state machine against input. A nil or interactive input
// ends the run in the done state without a query. On failure the partial
// result, in the failed state, is returned alongside the error.
func (o *Orchestrator) Run(ctx context.Context, input contract.InputSource) (*schema.RunResult, error) {
	log := o.rc.Logger
	result := &schema.RunResult{
		RunID:      uuid.NewString(),
		State:      schema.StateStart,
		ProjectDir: o.rc.WorkDir,
		ChangeSet:  []string{},
		StartedAt:  time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	log.Info("Project directory", "path", o.rc.WorkDir)

	o.transition(result, schema.StateCheckInput)
	if input == nil || input.Interactive() {
		log.Info("No stdin")
		o.transition(result, schema.StateDone)
		return result, nil
	}
	result.StreamPresent = true

	o.transition(result, schema.StateCollecting)
	log.Info("Reading input stream")
	changeSet, err := o.collect(ctx, input)
	if err != nil {
		return o.fail(result, err)
	}
	result.ChangeSet = changeSet.Sorted()
	log.Info("Modified candidates", "count", changeSet.Len(), "files", result.ChangeSet)

	o.transition(result, schema.StateResolving)
	cfg := o.rc.Config
	log.Info("Entry point", "path", cfg.EntryPoint)
	log.Info("Search dir", "path", cfg.SearchDir)

	resolution, err := o.rc.Resolver.Resolve(ctx, cfg.EntryPoint, cfg.SearchDir, changeSet, cfg)
	if err != nil {
		return o.fail(result, &contract.ResolutionError{
			EntryPoint: cfg.EntryPoint,
			SearchDir:  cfg.SearchDir,
			Cause:      err,
		})
	}
	result.Resolution = resolution
	log.Info("Test candidates", "count", len(resolution.TestPaths()), "tests", resolution.TestPaths())

	o.transition(result, schema.StateDone)
	return result, nil
}

// collect opens the input and waits for the collector's single outcome.
func (o *Orchestrator) collect(ctx context.Context, input contract.InputSource) (schema.ChangeSet, error) {
	stream, err := input.Open(ctx)
	if err != nil {
		return nil, &contract.StreamReadError{Cause: fmt.Errorf("opening input: %w", err)}
	}
	defer func() { _ = stream.Close() }()

	outcome := <-o.collector.CollectAsync(ctx, stream)
	return outcome.Set, outcome.Err
}

func (o *Orchestrator) transition(result *schema.RunResult, next schema.RunState) {
	o.rc.Logger.Debug("State transition", "from", result.State, "to", next)
	result.State = next
}

func (o *Orchestrator) fail(result *schema.RunResult, err error) (*schema.RunResult, error) {
	o.rc.Logger.Error("Run failed", "state", result.State, "error", err)
	o.transition(result, schema.StateFailed)
	return result, err
}

// discardLogger drops every message.
type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
