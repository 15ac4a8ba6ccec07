package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/consolecache/internal/common"
	"github.com/dmitrijs2005/consolecache/internal/snapshot"
	"github.com/spf13/cobra"
)

type snapshotOptions struct {
	*RootOptions
	Dir        string
	Passphrase string
}

func (o *snapshotOptions) passphrase() string {
	if o.Passphrase != "" {
		return o.Passphrase
	}
	v, _ := o.Env(common.EnvPrefix + "SNAPSHOT_PASSPHRASE")
	return v
}

// sink picks the destination: an explicit --dir, the configured bucket, or
// the working directory.
func (o *snapshotOptions) sink(ctx context.Context, app *App, location string) (snapshot.Sink, error) {
	useS3 := strings.HasPrefix(location, "s3://") || (location == "" && o.Dir == "" && app.cfg.S3())
	if !useS3 {
		return snapshot.FileSink{Dir: o.Dir}, nil
	}

	s, err := snapshot.NewS3Sink(ctx, snapshot.S3Config{
		Bucket:    app.cfg.S3Bucket,
		Region:    app.cfg.S3Region,
		Endpoint:  app.cfg.S3Endpoint,
		AccessKey: app.cfg.S3AccessKey,
		SecretKey: app.cfg.S3SecretKey,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure s3", err)
	}
	return s, nil
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &snapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the whole store",
		Long: `Export every partition to a JSON document, or restore one. Documents are
written to --dir, or to the configured S3 bucket when no directory is given.
A passphrase (--passphrase or CONSOLECACHE_SNAPSHOT_PASSPHRASE) encrypts the
document.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "local directory for snapshots")
	cmd.PersistentFlags().StringVar(&opts.Passphrase, "passphrase", "", "encrypt/decrypt with this passphrase")

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				sink, err := opts.sink(ctx, app, "")
				if err != nil {
					return err
				}
				loc, n, err := snapshot.Export(ctx, app.store, sink, opts.passphrase())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"location": loc, "records": n})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <location>",
		Short: "Restore a snapshot into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, app *App) error {
				sink, err := opts.sink(ctx, app, args[0])
				if err != nil {
					return err
				}
				n, err := snapshot.Import(ctx, app.store, sink, args[0], opts.passphrase(), app.logger)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"restored": n})
			})
		},
	})

	return cmd
}
