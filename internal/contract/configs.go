package contract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/impacted/schema"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Default values for list-valued configuration.
var (
	// SourceExtensions are the file suffixes the resolver parses.
	SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

	// DefaultTestPatterns mark a file as a test.
	DefaultTestPatterns = []string{"*.test.*", "*.spec.*", "__tests__/"}
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	WorkDir       string        `yaml:"work_dir"`
	GitRoot       string        `yaml:"git_root"`
	EntryPoint    string        `yaml:"entry_point"`
	SearchDir     string        `yaml:"search_dir"`
	IncludeFilter IncludeFilter `yaml:"-"`
	Include       []string      `yaml:"include,omitempty"`
	Excludes      []string      `yaml:"exclude,omitempty"`
	Extensions    []string      `yaml:"extensions,omitempty"`
	TestPatterns  []string      `yaml:"test_patterns"`

	InputFormat schema.InputFormat `yaml:"input_format"`
	BaseRef     string             `yaml:"base_ref,omitempty"`
	TargetRef   string             `yaml:"target_ref,omitempty"`

	Output     schema.OutputMode `yaml:"output"`
	OutputFile string            `yaml:"output_file,omitempty"`
	Workers    int               `yaml:"workers"`
	Width      int               `yaml:"width"` // Terminal width override (0 = auto-detect)
	UseColors  bool              `yaml:"color"`
	LogLevel   string            `yaml:"log_level"`
	LogFormat  schema.LogFormat  `yaml:"log_format"`

	CacheBackend   schema.DatabaseBackend `yaml:"cache_backend"`
	CacheDBConnect string                 `yaml:"-"` // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend `yaml:"history_backend"`
	HistoryDBConnect string                 `yaml:"-"` // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from the process working directory, so no tag
	WorkDir string `mapstructure:"-"`

	// --- Fields from rootCmd.PersistentFlags() ---
	GitRoot          string `mapstructure:"git-root"`
	EntryPoint       string `mapstructure:"entry-point"`
	SearchDir        string `mapstructure:"search-dir"`
	Include          string `mapstructure:"include"`
	Exclude          string `mapstructure:"exclude"`
	Extensions       string `mapstructure:"extensions"`
	TestPatterns     string `mapstructure:"test-patterns"`
	InputFormat      string `mapstructure:"input-format" validate:"oneof=lines diff"`
	BaseRef          string `mapstructure:"base-ref"`
	TargetRef        string `mapstructure:"target-ref"`
	Output           string `mapstructure:"output" validate:"oneof=text json csv"`
	OutputFile       string `mapstructure:"output-file"`
	Workers          int    `mapstructure:"workers" validate:"gte=1"`
	Width            int    `mapstructure:"width" validate:"gte=0"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	LogFormat        string `mapstructure:"log-format" validate:"oneof=text json"`
	CacheBackend     string `mapstructure:"cache-backend" validate:"oneof=sqlite mysql postgresql none"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend" validate:"omitempty,oneof=sqlite mysql postgresql none"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
}

// validate is shared; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config key rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Include = slices.Clone(c.Include)
	clone.Excludes = slices.Clone(c.Excludes)
	clone.Extensions = slices.Clone(c.Extensions)
	clone.TestPatterns = slices.Clone(c.TestPatterns)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Every failure is a *ConfigurationError.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processFilterRules(cfg, input); err != nil {
		return err
	}
	if err := processRefs(cfg, input); err != nil {
		return err
	}
	if err := resolveGitRoot(ctx, cfg, client, input); err != nil {
		return err
	}
	return resolveEntryAndSearch(cfg, input)
}

// ProcessStorageConfig validates only what the cache and history commands need.
func ProcessStorageConfig(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// normalizeRawInput lowercases the enum-valued fields before validation.
func normalizeRawInput(input *ConfigRawInput) {
	input.InputFormat = strings.ToLower(strings.TrimSpace(input.InputFormat))
	input.Output = strings.ToLower(strings.TrimSpace(input.Output))
	input.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	input.LogFormat = strings.ToLower(strings.TrimSpace(input.LogFormat))
	input.CacheBackend = strings.ToLower(strings.TrimSpace(input.CacheBackend))
	input.HistoryBackend = strings.ToLower(strings.TrimSpace(input.HistoryBackend))
}

// validateStruct runs the tag validations and converts the first failure.
func validateStruct(input *ConfigRawInput) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigurationError{Field: "config", Reason: err.Error(), Err: err}
	}
	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "oneof":
		reason = fmt.Sprintf("must be one of [%s] (received %q)", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "gte":
		reason = fmt.Sprintf("must be at least %s (received %v)", fe.Param(), fe.Value())
	default:
		reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ConfigurationError{Field: fe.Field(), Reason: reason, Err: err}
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	normalizeRawInput(input)
	if err := validateStruct(input); err != nil {
		return err
	}

	// --- Transfer simple fields from input -> cfg ---
	cfg.WorkDir = input.WorkDir
	cfg.InputFormat = schema.InputFormat(input.InputFormat)
	cfg.Output = schema.OutputMode(input.Output)
	cfg.OutputFile = input.OutputFile
	cfg.Workers = input.Workers
	cfg.Width = input.Width
	cfg.LogLevel = input.LogLevel
	cfg.LogFormat = schema.LogFormat(input.LogFormat)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return newConfigError("color", err)
	}
	cfg.UseColors = colors
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(input.CacheBackend)
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return newConfigError("cache-db-connect", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(input.HistoryBackend)
	if cfg.HistoryBackend == "" {
		return nil
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return newConfigError("history-db-connect", err)
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return &ConfigurationError{
				Field:  "history-db-connect",
				Reason: fmt.Sprintf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath),
			}
		}
	}
	return nil
}

// processFilterRules builds the inclusion filter from the list-valued keys.
func processFilterRules(cfg *Config, input *ConfigRawInput) error {
	cfg.Include = SplitList(input.Include)
	cfg.Excludes = SplitList(input.Exclude)
	cfg.Extensions = SplitList(input.Extensions)
	cfg.TestPatterns = SplitList(input.TestPatterns)
	if len(cfg.TestPatterns) == 0 {
		cfg.TestPatterns = slices.Clone(DefaultTestPatterns)
	}

	if err := ValidatePatterns(cfg.Include); err != nil {
		return newConfigError("include", err)
	}
	for _, group := range []struct {
		field    string
		patterns []string
	}{
		{"exclude", cfg.Excludes},
		{"test-patterns", cfg.TestPatterns},
	} {
		var globs []string
		for _, p := range group.patterns {
			if strings.ContainsAny(p, "*?[") {
				globs = append(globs, p)
			}
		}
		if err := ValidatePatterns(globs); err != nil {
			return newConfigError(group.field, err)
		}
	}

	cfg.IncludeFilter = NewRuleFilter(cfg.Extensions, cfg.Include, cfg.Excludes)
	return nil
}

// processRefs handles the git reference range used as an alternative input.
func processRefs(cfg *Config, input *ConfigRawInput) error {
	cfg.BaseRef = strings.TrimSpace(input.BaseRef)
	cfg.TargetRef = strings.TrimSpace(input.TargetRef)

	if cfg.BaseRef == "" && cfg.TargetRef == "" {
		return nil
	}
	if cfg.BaseRef == "" {
		return &ConfigurationError{Field: "base-ref", Reason: "must specify --base-ref when --target-ref is set"}
	}
	if cfg.TargetRef == "" {
		cfg.TargetRef = "HEAD"
	}
	return nil
}

// resolveGitRoot sets GitRoot from the explicit key or from Git, falling back
// to the working directory outside a repository.
func resolveGitRoot(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	workDir := input.WorkDir
	if workDir == "" {
		workDir = "."
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return newConfigError("git-root", err)
	}
	cfg.WorkDir = absWorkDir

	if root := strings.TrimSpace(input.GitRoot); root != "" {
		if !filepath.IsAbs(root) {
			root = filepath.Join(absWorkDir, root)
		}
		cfg.GitRoot = filepath.Clean(root)
		return checkDir("git-root", cfg.GitRoot)
	}

	gitRoot, err := client.GetRepoRoot(ctx, absWorkDir)
	if err != nil || gitRoot == "" {
		gitRoot = absWorkDir
	}
	cfg.GitRoot = filepath.Clean(gitRoot)
	return nil
}

// resolveEntryAndSearch makes the entry point and search dir absolute against GitRoot.
func resolveEntryAndSearch(cfg *Config, input *ConfigRawInput) error {
	entry := strings.TrimSpace(input.EntryPoint)
	if entry == "" {
		return newConfigError("entry-point", ErrNoEntryPoint)
	}
	cfg.EntryPoint = absUnder(cfg.GitRoot, entry)

	cfg.SearchDir = cfg.GitRoot
	if dir := strings.TrimSpace(input.SearchDir); dir != "" {
		cfg.SearchDir = absUnder(cfg.GitRoot, dir)
	}
	return nil
}

// ApplyOverrides replaces the entry point and search dir of a validated config.
// Empty values keep the current setting.
func (c *Config) ApplyOverrides(entryPoint, searchDir string) {
	if entryPoint = strings.TrimSpace(entryPoint); entryPoint != "" {
		c.EntryPoint = absUnder(c.GitRoot, entryPoint)
	}
	if searchDir = strings.TrimSpace(searchDir); searchDir != "" {
		c.SearchDir = absUnder(c.GitRoot, searchDir)
	}
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func checkDir(field, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return newConfigError(field, err)
	}
	if !info.IsDir() {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("%s is not a directory", path)}
	}
	return nil
}
