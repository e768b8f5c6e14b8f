// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRun prints a run result using the configured output format and file.
func (ow *OutWriter) WriteRun(result *schema.RunResult, cfg *contract.Config) error {
	return PrintRunResult(result, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and table configuration.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Index + Depth + Label with borders/padding
	baseWidth := 30

	// Test and Via share what is left
	available := (termWidth - baseWidth) / 2
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
