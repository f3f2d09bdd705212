package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <bundle.db>",
		Short: "Bundle JSONL series into a SQLite file",
		Long: `Read the JSONL checkpoint series of one model (or all with --all) from the
data root and write them into a single SQLite bundle. Rows already in the
bundle for a packed model are replaced. Point --source at the bundle to
read from it instead of the results directories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			bundle := args[0]

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			models := a.cfg.Models
			if !all {
				m, err := a.model(cmd)
				if err != nil {
					return err
				}
				models = []config.ModelVariant{m}
			}

			src := store.NewFileSource(a.cfg.Data.Root, a.logger)
			defer src.Close()

			type packResult struct {
				Model   string `json:"model"`
				Neurons int    `json:"neurons"`
				Rows    int    `json:"rows"`
				Skipped int    `json:"skipped_files"`
			}
			var results []packResult

			ctx := context.Background()
			for _, m := range models {
				ds, err := src.Load(ctx, m)
				if !a.jsonOut {
					printLoadErrors(cmd, ds)
				}
				if errors.Is(err, store.ErrNoData) {
					if all {
						a.logger.Info("no series to pack", "model", m.Key)
						continue
					}
					return fmt.Errorf("no neuron data found for %s", m.Name)
				}
				if err != nil {
					return err
				}

				rows, err := store.Pack(ctx, bundle, ds)
				if err != nil {
					return fmt.Errorf("pack %s: %w", m.Name, err)
				}
				results = append(results, packResult{Model: m.Key, Neurons: len(ds.IDs), Rows: rows, Skipped: len(ds.LoadErrors)})
			}

			if a.jsonOut {
				return writeJSON(cmd, map[string]interface{}{"bundle": bundle, "models": results})
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "Packed %s: %d neurons, %d checkpoints", r.Model, r.Neurons, r.Rows)
				if r.Skipped > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), " (%d files skipped)", r.Skipped)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bundle written to %s\n", bundle)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "Pack every configured model")

	return cmd
}
