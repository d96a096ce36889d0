package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
)

func addDaemon(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Keep the device cache and the database in sync",
		Long: `Daemon pulls the remote state on start and on the configured
pull_schedule, and reloads the planner when another process changes the
device cache. It runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return sessionContext(ctx, cmd, func(ctx context.Context, svc *app.Service) error {
				return svc.RunDaemon(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}
