package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/timeutil"
)

func addReport(topLevel *cobra.Command) {
	wo := &options.WindowOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise study time and tasks over recent days",
		Long: `Report lists the study minutes and completed tasks of each day in the
window, then the task completion per subject.

Examples:
  studyplan report
  studyplan report --last 3d
  studyplan report --last 4w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, label, err := timeutil.ParseWindow(wo.Last)
			if err != nil {
				return output.HandleError(err)
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				from, to := timeutil.Window(svc.Today(), days)
				result := svc.Report(from, to)
				if ok, err := output.Print(result); ok {
					return err
				}
				printer(nil).Report(result, label)
				return nil
			})
		},
	}

	options.AddWindowArgs(cmd, wo)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
