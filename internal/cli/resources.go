package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/consolecache/internal/hooks"
	"github.com/dmitrijs2005/consolecache/internal/resources"
	"github.com/spf13/cobra"
)

func lookup(app *App, name string) (hooks.Resolver, error) {
	r, err := app.catalog.Registry.Lookup(name)
	if errors.Is(err, hooks.ErrUnknownResource) {
		return nil, WrapExitError(ExitCommandError, "unknown resource, expected one of "+strings.Join(app.catalog.Registry.Names(), ", "), err)
	}
	return r, err
}


// NewResolveCommand creates the resolve command.
func NewResolveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <resource>",
		Short: "Print a resource from the cache, fetching it on a miss",
		Long: `Resolve a resource the way the console does: demo data in demo mode, the
cached value when there is one, the API otherwise. Records the principal may
not see are filtered out.

Example:
  cachectl resolve licenses
  cachectl resolve reports --principal admin@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				r, err := lookup(app, args[0])
				if err != nil {
					return err
				}
				p, err := principal(app)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r.Resolve(ctx, p))
			})
		},
	}
}

// NewInvalidateCommand creates the invalidate command.
func NewInvalidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <resource>",
		Short: "Drop the cached value of a resource for the principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				r, err := lookup(app, args[0])
				if err != nil {
					return err
				}
				p, err := principal(app)
				if err != nil {
					return err
				}
				if err := r.Invalidate(ctx, p); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"resource": r.Name(), "principal": p, "invalidated": true})
			})
		},
	}
}

type purgeResult struct {
	Resource string `json:"resource"`
	Deleted  int64  `json:"deleted"`
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(opts *RootOptions) *cobra.Command {
	var stale bool

	cmd := &cobra.Command{
		Use:   "purge [resource...]",
		Short: "Drop cached values of every principal",
		Long: `Drop every cached value of the given resources (all resources when none
is given). With --stale only values written under another cache version are
dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				names := args
				if len(names) == 0 {
					names = app.catalog.Registry.Names()
				}

				out := make([]purgeResult, 0, len(names))
				for _, name := range names {
					r, err := lookup(app, name)
					if err != nil {
						return err
					}

					purge := r.Purge
					if stale {
						purge = r.PurgeStale
					}
					n, err := purge(ctx)
					if err != nil {
						return err
					}
					out = append(out, purgeResult{Resource: r.Name(), Deleted: n})
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().BoolVar(&stale, "stale", false, "only drop values of other cache versions")
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached data (logout)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				if err := app.ClearAllData(ctx); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]bool{"cleared": true})
			})
		},
	}
}

type partitionInfo struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
}

// NewPartitionsCommand creates the partitions command.
func NewPartitionsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "partitions",
		Short: "List partitions and the keys they hold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				out := []partitionInfo{}
				for _, p := range app.store.Partitions() {
					keys, err := app.store.Keys(ctx, p, "")
					if err != nil {
						return err
					}
					out = append(out, partitionInfo{Name: p, Keys: keys})
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Print the profile stored by the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				p, err := principal(app)
				if err != nil {
					return err
				}
				profile, syncedAt, found, err := resources.LoadProfile(ctx, app.store, p)
				if err != nil {
					return err
				}
				if !found {
					return NewExitError(ExitFailure, "no profile cached for "+p+", run sync first")
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"profile": profile, "synced_at": syncedAt})
			})
		},
	}
}
