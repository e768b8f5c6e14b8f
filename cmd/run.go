package cmd

import (
	"github.com/huangsam/impacted/core"
	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"github.com/spf13/cobra"
)

// runCmd reads the change stream and lists the impacted tests.
var runCmd = &cobra.Command{
	Use:   "run [entry-point]",
	Short: "List the tests impacted by the changed files on stdin.",
	Long: `Read changed file paths from stdin, one per line, and list the test files
that transitively import any of them.

Each line is checked against the inclusion rules (--include, --exclude,
--extensions) and prefixed with the git root. The import graph is built from
the entry point and every test file under the search dir.

When stdin is a terminal there is nothing to read and no query is made.

Examples:
  # Tests touched by the working tree
  git diff --name-only HEAD | impacted run src/index.ts

  # Feed a unified diff instead of a name list
  git diff main | impacted run --input-format diff -e src/main.tsx

  # Let impacted ask git for the change list
  impacted run -e src/index.ts --base-ref main

  # Export as CSV for CI
  git diff --name-only main | impacted run -e src/index.ts --output csv --output-file tests.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runCfg := cfg
		if cfg.BaseRef != "" {
			// git diff --name-only is a plain name list
			runCfg = cfg.Clone()
			runCfg.InputFormat = schema.LinesInput
		}
		source := core.SelectInput(runCfg, contract.NewLocalGitClient())
		if err := core.ExecuteRun(rootCtx, runCfg, cacheManager, source, newLogger()); err != nil {
			contract.LogFatal("Cannot resolve impacted tests", err)
		}
	},
}
