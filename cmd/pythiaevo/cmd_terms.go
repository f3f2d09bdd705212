package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/highlight"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

func newTermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms [neuron]",
		Short: "Show the common terms that drive highlighting",
		Long: `Print the most common words and fragments of each cluster of a neuron at
one checkpoint (the reference checkpoint by default), or of ad-hoc texts
given with --text.

Examples:
  pythiaevo terms L0N20
  pythiaevo terms L0N20 --step 1000 --top 5
  pythiaevo terms --text "the cat sat" --text "a cat ran"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, _ := cmd.Flags().GetStringArray("text")
			step, _ := cmd.Flags().GetInt("step")
			top, _ := cmd.Flags().GetInt("top")
			minLen, _ := cmd.Flags().GetInt("min-length")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				top = a.cfg.Render.TopTerms
			}
			if !cmd.Flags().Changed("min-length") {
				minLen = a.cfg.Render.MinTermLength
			}
			if minLen < 1 {
				return fmt.Errorf("--min-length must be at least 1, got %d", minLen)
			}

			type termGroup struct {
				Label string   `json:"label,omitempty"`
				Texts int      `json:"texts"`
				Terms []string `json:"terms"`
			}
			var groups []termGroup
			var resolvedStep *int

			switch {
			case len(texts) > 0:
				groups = append(groups, termGroup{Texts: len(texts), Terms: highlight.CommonTerms(texts, minLen, top)})

			case len(args) == 1:
				id, err := neuron.ParseID(args[0])
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

				ds, err := src.Load(context.Background(), model)
				if errors.Is(err, store.ErrNoData) {
					return fmt.Errorf("no neuron data found for %s", model.Name)
				}
				if err != nil {
					return err
				}

				var rec neuron.Record
				if cmd.Flags().Changed("step") {
					rec, err = ds.Checkpoint(id, step)
				} else {
					rec, err = ds.Reference(id, a.cfg.Render.ReferenceStep)
				}
				if err != nil {
					return err
				}
				resolvedStep = &rec.Step

				for _, c := range neuron.Group(rec) {
					groups = append(groups, termGroup{
						Label: string(c.Label),
						Texts: len(c.Texts),
						Terms: highlight.CommonTerms(c.Texts, minLen, top),
					})
				}

			default:
				return fmt.Errorf("a neuron id or at least one --text is required")
			}

			if a.jsonOut {
				out := map[string]interface{}{"groups": groups}
				if resolvedStep != nil {
					out["neuron"] = args[0]
					out["step"] = *resolvedStep
				}
				return writeJSON(cmd, out)
			}

			if resolvedStep != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s at checkpoint %d\n", args[0], *resolvedStep)
			}
			for _, g := range groups {
				terms := strings.Join(g.Terms, ", ")
				if terms == "" {
					terms = "(none)"
				}
				if g.Label == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%d texts: %s\n", g.Texts, terms)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Cluster %s (%d examples): %s\n", g.Label, g.Texts, terms)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArray("text", nil, "Analyze this text instead of a neuron (repeatable)")
	cmd.Flags().Int("step", 0, "Checkpoint step (default: reference checkpoint)")
	cmd.Flags().Int("top", 2, "Number of terms per group")
	cmd.Flags().Int("min-length", 3, "Shortest word or fragment considered")

	return cmd
}
