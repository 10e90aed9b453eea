package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dweymouth/autopause/backend"
	"github.com/dweymouth/autopause/res"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts backend.Options

	cmd := &cobra.Command{
		Use:   res.AppName,
		Short: res.ShortDescription,
		Long: res.ShortDescription + `

Watches every MPRIS media player on the session bus. When another player starts
playing, the target player is paused. When that player pauses or stops, the
target is resumed, but only if it was actually playing when it got paused.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "verbose output, use twice for very verbose")

	return cmd
}

func run(ctx context.Context, opts backend.Options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := backend.StartupApp(ctx, res.AppName, opts)
	if err != nil {
		return fmt.Errorf("fatal startup error: %w", err)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
