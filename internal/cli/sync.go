package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/metrics"
	"github.com/dmitrijs2005/consolecache/internal/services"
	"github.com/spf13/cobra"
)

type passReport struct {
	PassID   string            `json:"pass_id"`
	Results  map[string]bool   `json:"results"`
	Skipped  []string          `json:"skipped,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Duration string            `json:"duration"`
}

func newPassReport(res services.Result) passReport {
	r := passReport{
		PassID:   res.PassID.String(),
		Results:  res.Map(),
		Duration: res.Finished.Sub(res.Started).Round(time.Millisecond).String(),
	}
	for name, o := range res.Outcomes {
		if o == services.OutcomeSkipped {
			r.Skipped = append(r.Skipped, name)
		}
	}
	if len(res.Errors) > 0 {
		r.Errors = make(map[string]string, len(res.Errors))
		for name, err := range res.Errors {
			r.Errors[name] = err.Error()
		}
	}
	return r
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh every resource from the API",
		Long: `Run a sync pass: every resource is fetched, normalized and written to its
partition. A failing resource keeps its previous cached value and does not
affect the others.

With --interval the command keeps running and starts a new pass on every
tick until interrupted.

Example:
  cachectl sync
  cachectl sync --interval 5m --metrics-addr :9102`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				if !cmd.Flags().Changed("interval") {
					interval = app.cfg.SyncInterval
				}
				return runSync(ctx, cmd, app, interval)
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the pass at this interval (0 runs once)")
	return cmd
}

func runSync(ctx context.Context, cmd *cobra.Command, app *App, interval time.Duration) error {
	p, err := principal(app)
	if err != nil {
		return err
	}

	if app.cfg.MetricsAddr != "" {
		stop := serveMetrics(ctx, app, app.cfg.MetricsAddr)
		defer stop()
	}

	var last services.Result
	var printErr error
	app.sync.Watch(ctx, p, interval, func(res services.Result) {
		last = res
		if err := printJSON(cmd.OutOrStdout(), newPassReport(res)); err != nil && printErr == nil {
			printErr = err
		}
	})
	if printErr != nil {
		return printErr
	}

	if interval <= 0 && len(last.Failed()) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d resource(s) failed to sync: %v", len(last.Failed()), last.Failed()))
	}
	return nil
}

// serveMetrics exposes the prometheus registry on addr until the returned
// function is called or ctx is done.
func serveMetrics(ctx context.Context, app *App, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		app.logger.Info(ctx, "serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "metrics listener failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
