package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/consolecache/internal/config"
	"github.com/dmitrijs2005/consolecache/internal/remote"
	"github.com/spf13/cobra"
)

// RootOptions holds what every command shares.
type RootOptions struct {
	// Env looks up environment variables. Defaults to os.LookupEnv.
	Env func(string) (string, bool)
	// Client replaces the HTTP client of the API (for testing).
	Client remote.Client
}

// NewRootCommand creates the cachectl command tree.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	if opts.Env == nil {
		opts.Env = os.LookupEnv
	}

	cmd := &cobra.Command{
		Use:   "cachectl",
		Short: "Local cache and sync for the erasure console",
		Long: `cachectl keeps a local, partitioned copy of console data (licenses,
sessions, erasure reports, sub-users and the profile), refreshes it from the
console API and serves reads from it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewSyncCommand(opts),
		NewResolveCommand(opts),
		NewInvalidateCommand(opts),
		NewPurgeCommand(opts),
		NewClearCommand(opts),
		NewPartitionsCommand(opts),
		NewProfileCommand(opts),
		NewSnapshotCommand(opts),
	)
	return cmd
}

// loadConfig builds the configuration of cmd.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path, o.Env)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := config.ApplyFlags(cfg, cmd.Flags()); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to apply flags", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// run opens an App for cmd, hands it to fn and closes it afterwards.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := NewApp(ctx, cfg, o.Client, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.logger.Error(ctx, "error closing store", "error", err)
		}
	}()

	return fn(ctx, app)
}

// principal wraps App.Principal for commands.
func principal(app *App) (string, error) {
	p, err := app.Principal()
	if err != nil {
		return "", WrapExitError(ExitCommandError, "cannot determine principal", err)
	}
	return p, nil
}
