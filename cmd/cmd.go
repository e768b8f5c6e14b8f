// Package cmd defines the command-line interface for impacted.
package cmd

import (
	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Add the config subcommands to the parent config command
	configCmd.AddCommand(configShowCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("git-root", "", "Repository root that changed paths are relative to (default: detected with git)")
	rootCmd.PersistentFlags().StringP("entry-point", "e", "", "Entry module the import graph starts from")
	rootCmd.PersistentFlags().String("search-dir", "", "Directory to scan for sources and tests (default: git root)")
	rootCmd.PersistentFlags().String("include", "", "Comma-separated globs a changed path must match")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().String("extensions", "", "Comma-separated suffixes a changed path must end with")
	rootCmd.PersistentFlags().String("test-patterns", "", "Comma-separated patterns that mark a file as a test (default: *.test.*,*.spec.*,__tests__/)")
	rootCmd.PersistentFlags().String("input-format", string(schema.LinesInput), "Change stream format: lines or diff")
	rootCmd.PersistentFlags().String("base-ref", "", "Read changed files from git diff of this ref instead of stdin")
	rootCmd.PersistentFlags().String("target-ref", "", "Target ref for --base-ref (default: HEAD)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent parse workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", string(schema.TextLog), "Log format: text or json")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Parse cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
