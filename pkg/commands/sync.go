package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/syncer"
)

func addSync(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull or push the study plan of the signed in account",
	}

	addSyncPull(cmd)
	addSyncPush(cmd)
	addSyncStatus(cmd)
	topLevel.AddCommand(cmd)
}

func online(svc *app.Service) error {
	if err := svc.RequireOnline(); err != nil {
		return err
	}
	_, err := signedIn(svc)
	return err
}

func syncResult(res syncer.Result) error {
	if ok, err := output.Print(res); ok {
		if err != nil {
			return err
		}
	} else if res.OK {
		fmt.Println(res.Op, "done")
	}
	if !res.OK {
		return errors.New(res.Message)
	}
	return nil
}

func addSyncPull(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace the local plan with the one stored in the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := online(svc); err != nil {
					return err
				}
				return syncResult(svc.Sync.Pull(ctx))
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addSyncPush(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Save the local plan to the account now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := online(svc); err != nil {
					return err
				}
				return syncResult(svc.Sync.PushNow(ctx))
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addSyncStatus(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				if err := svc.RequireOnline(); err != nil {
					return err
				}
				st := svc.Sync.Status()
				if ok, err := output.Print(st); ok {
					return err
				}
				printer(nil).SyncStatus(st)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}
