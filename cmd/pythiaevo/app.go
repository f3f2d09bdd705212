package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

// app is the per-command state built from config and global flags.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	jsonOut bool
}

// loadApp loads configuration, applies global flag overrides and validates.
// Flags win over environment variables, which win over the config file.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Data.Root = root
	}
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		cfg.Data.Source = source
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	return &app{
		cfg:     cfg,
		logger:  logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr()),
		jsonOut: jsonOut,
	}, nil
}

// model resolves the --model flag against the configured variants.
func (a *app) model(cmd *cobra.Command) (config.ModelVariant, error) {
	name, _ := cmd.Flags().GetString("model")
	if name == "" {
		return a.cfg.Models[0], nil
	}
	m, ok := a.cfg.Model(name)
	if !ok {
		return config.ModelVariant{}, fmt.Errorf("%w %q", store.ErrUnknownModel, name)
	}
	return m, nil
}

// openSource opens the configured data source.
func (a *app) openSource() (store.Source, error) {
	src, err := store.Open(a.cfg.Data, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open data source: %w", err)
	}
	return src, nil
}

// writeJSON writes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printLoadErrors reports skipped series files on stderr.
func printLoadErrors(cmd *cobra.Command, ds *store.Dataset) {
	if ds == nil {
		return
	}
	for _, le := range ds.LoadErrors {
		if le.Line > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error loading %s line %d: %s\n", le.File, le.Line, le.Error)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error loading %s: %s\n", le.File, le.Error)
		}
	}
}
