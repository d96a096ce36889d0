package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
)

func addDay(topLevel *cobra.Command) {
	oo := &options.OnOptions{}
	ids := &options.IDOptions{}
	var month, long bool

	cmd := &cobra.Command{
		Use:   "day [date]",
		Short: "Show the tasks, commitments and study time of a day",
		Example: `
studyplan day
studyplan day 2025-03-10
studyplan day --month
studyplan day --on 3/1 --month --long
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if oo.OnString != "" {
					return errors.New("give the date as an argument or with --on, not both")
				}
				oo.OnString = args[0]
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				st := svc.State()
				pp := printer(ids)
				switch {
				case month && long:
					pp.MonthLong(st, day, svc.Today())
					return nil
				case month:
					pp.Month(st, day, svc.Today())
					return nil
				}
				ov := svc.Overview(day)
				if ok, err := output.Print(ov); ok {
					return err
				}
				pp.Overview(st, ov)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&month, "month", "m", false, "Show the month containing the day.")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "With --month, one line per day.")
	options.AddOnArgs(cmd, oo)
	options.AddShowIDArgs(cmd, ids)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
