package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/timeutil"
)

func addMigration(topLevel *cobra.Command) {
	migrationCmd := &cobra.Command{
		Use:   "migration",
		Short: "Move open tasks left on past days",
	}

	addMigrationList(migrationCmd)
	addMigrationMove(migrationCmd)
	topLevel.AddCommand(migrationCmd)
}

func addMigrationList(parent *cobra.Command) {
	wo := &options.WindowOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks on past days within the window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, label, err := timeutil.ParseWindow(wo.Last)
			if err != nil {
				return output.HandleError(err)
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				// The window ends yesterday; today's tasks are not behind.
				since, _ := timeutil.Window(svc.Today().AddDays(-1), days)
				candidates := svc.MigrationCandidates(since)
				if ok, err := output.Print(candidates); ok {
					return err
				}
				printer(nil).Migration(candidates, label)
				return nil
			})
		},
	}

	options.AddWindowArgs(cmd, wo)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addMigrationMove(parent *cobra.Command) {
	var from, to string

	cmd := &cobra.Command{
		Use:   "move <id> --from <date>",
		Short: "Move an open task to another day, today by default",
		Example: `
studyplan migration move 3f2a9c1d --from 2025-03-08
studyplan migration move 3f2a --from 3/8 --to 3/12
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				now := time.Now().In(svc.Location())
				src, err := datekey.ParseLoose(from, now)
				if err != nil {
					return err
				}
				dst := svc.Today()
				if to != "" {
					if dst, err = datekey.ParseLoose(to, now); err != nil {
						return err
					}
				}
				t, err := findTask(svc.State(), src, args[0])
				if err != nil {
					return err
				}
				moved, err := svc.MigrateTask(src, t.ID, dst)
				if err != nil {
					return err
				}
				fmt.Printf("Moved %q from %s to %s\n", moved.Text, src, dst)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Day the task is on.")
	cmd.Flags().StringVar(&to, "to", "", "Day to move it to, defaults to today.")
	_ = cmd.MarkFlagRequired("from")
	parent.AddCommand(cmd)
}
