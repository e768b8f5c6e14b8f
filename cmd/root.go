package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/internal/iocache"
	"github.com/huangsam/impacted/internal/logsink"
	"github.com/huangsam/impacted/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end. Stdout carries results, so report on stderr.
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "impacted",
	Short: "Find the tests impacted by a set of changed files.",
	Long: `Impacted reads changed file paths from stdin, builds the import graph of a
JavaScript or TypeScript project, and lists the test files that depend on them.

Examples:
  git diff --name-only main | impacted run --entry-point src/index.ts
  git diff main | impacted run --input-format diff --output json`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig sets up config file lookup, ENV variables and defaults.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("IMPACTED")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("git-root", "")
	viper.SetDefault("entry-point", "")
	viper.SetDefault("search-dir", "")
	viper.SetDefault("include", "")
	viper.SetDefault("exclude", "")
	viper.SetDefault("extensions", "")
	viper.SetDefault("test-patterns", "")
	viper.SetDefault("input-format", schema.LinesInput)
	viper.SetDefault("base-ref", "")
	viper.SetDefault("target-ref", "")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("output-file", "")
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("width", 0)
	viper.SetDefault("color", "yes")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", schema.TextLog)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
}

// setConfigFile points Viper at --config or the default .impacted.yaml search path.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".impacted") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfigFile reads the config file when one exists.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// resolveConfig merges all sources into input and validates them into cfg.
// A positional argument overrides the entry point.
func resolveConfig(ctx context.Context, args []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if len(args) == 1 {
		input.EntryPoint = args[0]
	}

	// The process working directory is read once here and passed down explicitly.
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("unable to determine working directory: %w", err)
	}
	input.WorkDir = workDir

	client := contract.NewLocalGitClient()
	return contract.ProcessAndValidate(ctx, cfg, client, input)
}

// sharedSetup unmarshals config, runs validation and opens the stores.
func sharedSetup(ctx context.Context, _ *cobra.Command, args []string) error {
	return setup(ctx, args, true)
}

// setup is sharedSetup with control over whether an entry point is required.
// Without one, the search dir falls back to the git root.
func setup(ctx context.Context, args []string, requireEntry bool) error {
	contract.ProcessProfilingConfig(profile, viper.GetString("profile"))
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}

	if err := resolveConfig(ctx, args); err != nil {
		if requireEntry || !errors.Is(err, contract.ErrNoEntryPoint) {
			return err
		}
		cfg.SearchDir = cfg.GitRoot
	}

	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// newLogger builds the leveled log sink for cfg. Logs go to stderr so stdout
// carries only results.
func newLogger() contract.Logger {
	return logsink.NewPterm(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
