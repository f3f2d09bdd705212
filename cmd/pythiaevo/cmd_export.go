package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/store"
	"github.com/anon96881/PythiaEvolution/internal/visualization"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a self-contained HTML page for every neuron of a model",
		Long: `Load every neuron series of a model variant and write one HTML page that
embeds all checkpoints. The page has layer and neuron inputs, a checkpoint
slider and a fixed reference panel with common-term highlighting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			noOpen, _ := cmd.Flags().GetBool("no-open")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			model, err := a.model(cmd)
			if err != nil {
				return err
			}

			src, err := a.openSource()
			if err != nil {
				return err
			}
			defer src.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Loading %s neuron data...\n", model.Name)
			ds, err := src.Load(context.Background(), model)
			printLoadErrors(cmd, ds)
			if errors.Is(err, store.ErrNoData) {
				return fmt.Errorf("no neuron data found for %s", model.Name)
			}
			if err != nil {
				return err
			}

			html, summary, err := visualization.RenderStatic(ds, visualization.OptionsFrom(a.cfg.Render), a.cfg.Render.ReferenceStep)
			if err != nil {
				return fmt.Errorf("render HTML: %w", err)
			}

			outPath := output
			if outPath == "" {
				outPath = filepath.Join(os.TempDir(), "pythiaevo-"+model.Key+".html")
			}
			if dir := filepath.Dir(outPath); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(outPath, html, 0644); err != nil {
				return fmt.Errorf("write HTML file: %w", err)
			}

			if a.jsonOut {
				if err := writeJSON(cmd, map[string]interface{}{
					"path":       outPath,
					"model":      model.Key,
					"neurons":    summary.Neurons,
					"first_step": summary.FirstStep,
					"last_step":  summary.LastStep,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Visualization written to %s\n", outPath)
				fmt.Fprintf(cmd.OutOrStdout(), "Neurons: %d\n", summary.Neurons)
				fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint range: %d - %d\n", summary.FirstStep, summary.LastStep)
			}

			if !noOpen {
				if err := visualization.OpenBrowser(outPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, outPath)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: temp dir)")
	cmd.Flags().Bool("no-open", false, "Don't open browser after generating HTML")

	return cmd
}
