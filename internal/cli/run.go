package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the local cache in sync until interrupted",
		Long: `Run the connectivity monitor and the sync coordinator in the foreground.

The cache is checked against the remote version at start and every time the
network comes back. When metrics.addr is set, Prometheus metrics are served
on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				return a.serve(cmd.Context())
			})
		},
	}
}

// serve blocks until ctx is cancelled or the metrics server fails.
func (a *app) serve(ctx context.Context) error {
	a.logger.Info("starting apostol", "remote", a.cfg.Remote.Type, "dataDir", a.cfg.Storage.DataDir)

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{
			Addr:              a.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			a.logger.Info("serving metrics", "addr", a.cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		a.monitor.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.syncer.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.watchDocuments(ctx)
		return nil
	})

	err := g.Wait()
	a.logger.Info("shutting down")
	return err
}

// watchDocuments reloads the documents whenever the network comes up.
func (a *app) watchDocuments(ctx context.Context) {
	for online := range a.monitor.Subscribe(ctx) {
		if !online {
			continue
		}
		if err := a.documents.Reload(ctx); err != nil && ctx.Err() == nil {
			a.logger.Warn("documents unavailable", "error", err)
		}
	}
}
