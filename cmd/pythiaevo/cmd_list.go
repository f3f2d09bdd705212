package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List neurons with checkpoint data",
		Long: `List the neurons of a model variant that have a checkpoint series, ordered
by layer then neuron index. Use --all to list every configured model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")

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

			src, err := a.openSource()
			if err != nil {
				return err
			}
			defer src.Close()

			type modelListing struct {
				Model      string            `json:"model"`
				Name       string            `json:"name"`
				Neurons    []string          `json:"neurons"`
				Steps      []int             `json:"steps"`
				LoadErrors []store.LoadError `json:"load_errors"`
			}

			var listings []modelListing
			for _, m := range models {
				ds, err := src.Load(context.Background(), m)
				if err != nil && !errors.Is(err, store.ErrNoData) {
					return err
				}
				l := modelListing{Model: m.Key, Name: m.Name, Neurons: []string{}, Steps: []int{}, LoadErrors: []store.LoadError{}}
				if ds != nil {
					for _, id := range ds.IDs {
						l.Neurons = append(l.Neurons, id.String())
					}
					if steps := ds.SampleSteps(); steps != nil {
						l.Steps = steps
					}
					l.LoadErrors = ds.LoadErrors
				}
				listings = append(listings, l)

				if !a.jsonOut {
					printLoadErrors(cmd, ds)
				}
			}

			if a.jsonOut {
				return writeJSON(cmd, map[string]interface{}{"models": listings})
			}

			for _, l := range listings {
				if len(l.Neurons) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: no neuron data found\n", l.Name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d neurons\n", l.Name, len(l.Neurons))
				for _, id := range l.Neurons {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "List every configured model")

	return cmd
}
