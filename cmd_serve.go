package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"imgbench/bench"
	"imgbench/model"
)

func (c *cli) serveCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rerun the benchmark periodically and serve the latest runs over http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, true, func(a *app) error {
				ctx := cmd.Context()

				jobs, err := a.plan(cmd)

				if err != nil {
					return err
				}

				runner, err := a.runner(false)

				if err != nil {
					return err
				}

				renderer := func(latest map[model.SourceKind]*bench.Run) {
					renderLatest(cmd.OutOrStdout(), latest)
				}

				if quiet {
					renderer = nil
				}

				svc := bench.NewService(bench.WatchConfig{
					Runner:     runner,
					Mode:       a.settings.Mode,
					Jobs:       jobs,
					Cache:      a.cache,
					Renderer:   renderer,
					TickPeriod: a.settings.ServeTick,
					Logger:     a.log,
				})

				mux := http.NewServeMux()
				mux.HandleFunc("/runs/{source}", bench.CreateGetRunEndpoint(svc))
				mux.Handle("/metrics", promhttp.Handler())

				server := &http.Server{Addr: a.settings.ServeAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				serveErr := make(chan error, 1)

				go func() {
					a.log.WithField("addr", server.Addr).Info("serving")

					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						serveErr <- err
					}

					close(serveErr)
				}()

				watchCtx, stop := context.WithCancel(ctx)
				defer stop()

				go func() {
					if err := <-serveErr; err != nil {
						a.log.WithError(err).Error("http server stopped")
						stop()
					}
				}()

				if err := svc.StartWatching(watchCtx); err != nil {
					return err
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				return errors.Wrap(server.Shutdown(shutdownCtx), "shutdown http server")
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Duration("tick", 0, "period between benchmark batches")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not redraw the terminal table")

	cmd.Flags().String("mode", "", "sequential or parallel")
	cmd.Flags().StringSlice("sources", nil, "sources to load from (FILE, BLOB)")
	cmd.Flags().StringSlice("strategies", nil, "transport strategies (stream, buffer, zerocopy)")
	cmd.Flags().Int("iterations", 0, "loads per item, source and strategy")
	cmd.Flags().Int("workers", 0, "parallel worker limit")

	c.bind(cmd, map[string]string{
		"addr":       keyServeAddr,
		"tick":       keyServeTick,
		"mode":       keyMode,
		"sources":    keySources,
		"strategies": keyStrategies,
		"iterations": keyIterations,
		"workers":    keyWorkers,
	})

	return cmd
}
