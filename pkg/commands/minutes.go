package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/timeutil"
)

func addMinutes(topLevel *cobra.Command) {
	oo := &options.OnOptions{}
	var set string

	cmd := &cobra.Command{
		Use:   "minutes [up|down|delta]",
		Short: "Show or change the study time of a day",
		Long: `Show or change the study time of a day.

"up" and "down" move it by the configured stepper. A delta such as +25, -10
or 1h30m adds or removes time; put -- before a negative delta so it is not
read as a flag. Study time never drops below zero.`,
		Example: `
studyplan minutes
studyplan minutes up
studyplan minutes +1h30m --on 3/9
studyplan minutes -- -10
studyplan minutes --set 90
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				switch {
				case set != "":
					v, err := timeutil.ParseMinutes(set)
					if err != nil {
						return err
					}
					if v < 0 {
						v = 0
					}
					svc.Update(func(st planner.State) planner.State {
						return st.UpsertDay(day, planner.DayPatch{StudyMinutes: &v})
					})
				case len(args) == 1:
					delta, err := stepOf(args[0], svc.Config.Stepper)
					if err != nil {
						return err
					}
					d := planner.NewDraft(svc.State(), day)
					d.StepStudyMinutes(delta)
					d.Commit(svc.Planner)
				}
				minutes := svc.State().Day(day).StudyMinutes
				if ok, err := output.Print(map[string]interface{}{"day": day, "minutes": minutes}); ok {
					return err
				}
				fmt.Printf("%s: %s studied\n", day, timeutil.FormatMinutes(minutes))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "Set the study time instead of changing it.")
	options.AddOnArgs(cmd, oo)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func stepOf(arg string, stepper int) (int, error) {
	if stepper <= 0 {
		stepper = planner.DefaultStepper
	}
	switch arg {
	case "up":
		return stepper, nil
	case "down":
		return -stepper, nil
	}
	return timeutil.ParseMinutes(arg)
}
