package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/insights"
	"tableflip.dev/studyplan/pkg/planner"
)

func addGoal(topLevel *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "goal [minutes]",
		Short: "Show progress towards the daily goal, or set it",
		Example: `
studyplan goal
studyplan goal 90
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				if len(args) == 1 {
					minutes, err := strconv.Atoi(args[0])
					if err != nil || minutes <= 0 {
						return errors.New("goal must be a positive number of minutes")
					}
					svc.Update(func(st planner.State) planner.State { return st.SetGoal(minutes) })
				}
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				g := insights.GoalProgress(svc.State(), day)
				if ok, err := output.Print(g); ok {
					return err
				}
				fmt.Printf("%s  ", day)
				printer(nil).Goal(g)
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
