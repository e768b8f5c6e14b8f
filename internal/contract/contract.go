// Package contract provides interfaces and shared utilities for the impacted internal architecture.
package contract

import (
	"context"
	"io"

	"github.com/huangsam/impacted/schema"
)

// GitClient defines the Git operations impacted depends on.
// This allows configuration and input handling to be tested without a real git executable.
type GitClient interface {
	// Run executes a git command and returns its output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetChangedFilesBetweenRefs returns repo-relative paths that changed between two refs.
	GetChangedFilesBetweenRefs(ctx context.Context, repoPath string, baseRef string, targetRef string) ([]string, error)
}

// InputSource is where the change stream comes from.
type InputSource interface {
	// Interactive reports whether the source is attached to a terminal.
	// An interactive source carries no stream and is never opened.
	Interactive() bool

	// Open returns the stream to collect from.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Resolver finds the test files impacted by a change set.
// The orchestrator treats the returned resolution as opaque.
type Resolver interface {
	Resolve(ctx context.Context, entryPoint, searchDir string, changeSet schema.ChangeSet, cfg *Config) (*schema.Resolution, error)
}

// Logger is a leveled logging sink. Key-value pairs follow the message.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}
