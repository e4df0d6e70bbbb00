package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depchrono/pkg/server"
	"github.com/matzehuels/depchrono/pkg/temporal"
)

const shutdownTimeout = 10 * time.Second

// serveCommand runs the read-only HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored snapshots and temporal analyses over HTTP",
		Long: `Serve a read-only JSON API over the snapshot store. When the package index
and matrices are present, /temporal/{package} runs analyses on demand.`,
		Example: `  depchrono serve --addr :8080 --store-backend mongo`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var analyzer *temporal.Analyzer
	if ix, err := temporal.LoadPackageIndex(cfg.PackageIndex); err != nil {
		c.Logger.Warn("temporal analysis disabled", "index", cfg.PackageIndex, "err", err)
	} else {
		analyzer = temporal.NewAnalyzer(cfg.Matrices, ix, c.Logger)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(st, analyzer, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
