package main

import (
	"context"
	"fmt"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/store"
	"github.com/anon96881/PythiaEvolution/internal/visualization"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interactive dashboard",
		Long: `Serve the interactive dashboard: a model selector, layer and neuron inputs,
a checkpoint selector and the reference panel. Datasets are loaded once per
model; with --watch they are reloaded when series files change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noOpen, _ := cmd.Flags().GetBool("no-open")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Data.Watch, _ = cmd.Flags().GetBool("watch")
			}

			src, err := a.openSource()
			if err != nil {
				return err
			}
			cache := store.NewCache(src)
			defer cache.Close()

			return runServer(cmd, cmd.Context(), a, cache, noOpen)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, localhost:0 picks a free port)")
	cmd.Flags().Bool("watch", false, "Reload a model's data when its series files change")
	cmd.Flags().Bool("no-open", false, "Don't open browser after starting the server")

	return cmd
}

// runServer starts the dashboard and blocks until Ctrl-C.
func runServer(cmd *cobra.Command, ctx context.Context, a *app, cache *store.Cache, noOpen bool) error {
	srv := visualization.NewServer(cache, a.cfg, a.logger)

	srvCtx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	if a.cfg.Data.Watch && a.cfg.Data.Source == "" {
		w, err := store.NewWatcher(cache, a.cfg.Data.Root, a.cfg.Models, a.logger)
		if err != nil {
			return err
		}
		go w.Run(srvCtx)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(srvCtx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Addr() != "" {
			break
		}
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}

	addr := srv.Addr()
	if addr == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + addr
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noOpen {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	// Block until server exits
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
