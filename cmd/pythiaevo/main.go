package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pythiaevo",
		Short: "Neuron evolution visualizer for Pythia checkpoint clusters",
		Long: `pythiaevo renders pre-computed neuron activation clusters across training
checkpoints, comparing any checkpoint against a fixed final reference with
tokens highlighted by their cluster's most common words and fragments.

It can write a self-contained HTML page, serve an interactive dashboard,
or expose the same data to agents over MCP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", "", "Data root containing the results directories (default from config)")
	rootCmd.PersistentFlags().String("source", "", "Read series from a packed SQLite bundle instead of JSONL files")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.pythiaevo/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Model variant key or name (default: first configured model)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newExportCmd(),
		newServeCmd(),
		newListCmd(),
		newTermsCmd(),
		newPackCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)

	return rootCmd
}
