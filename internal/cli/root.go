// Package cli implements the autonomyd command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kibbyd/autonomy-plane/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "autonomyd",
	Short: "Autonomy control plane for a cognitive agent runtime",
	Long:  "Computes per-step autonomy envelopes, reduces them against run reputation, filters candidate actions, and appends every decision to a persistent log.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (optional)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig resolves the effective config: the file when --config is set,
// built-in defaults otherwise.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
