package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

// configShowCmd prints the validated configuration.
var configShowCmd = &cobra.Command{
	Use:   "show [entry-point]",
	Short: "Print the configuration a run would use, as YAML",
	Long: `Merge defaults, the .impacted.yaml file, IMPACTED_* environment variables and
flags, validate them, and print the result. Connection strings are omitted.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		return resolveConfig(rootCtx, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := writeConfigYAML(cfg); err != nil {
			contract.LogFatal("Failed to print configuration", err)
		}
	},
}

func writeConfigYAML(c *contract.Config) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
