package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/export"
	"tableflip.dev/studyplan/pkg/timeutil"
)

func addExport(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks and commitments to other calendars",
	}

	addExportLink(cmd)
	addExportICS(cmd)
	topLevel.AddCommand(cmd)
}

func addExportLink(parent *cobra.Command) {
	on := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "link <id>",
		Short: "Print a Google Calendar link that creates the item as an event",
		Long: `Link builds an "add event" URL for a task or commitment shown on a day.
Commitments start at their time and last an hour, tasks are all day events.

Examples:
  studyplan export link 3f2a
  studyplan export link 3f2a --on 2025-03-10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := on.GetOn(svc.Location())
				if err != nil {
					return err
				}
				st := svc.State()
				var it export.Item
				if c, err := findCommitment(st, day, args[0]); err == nil {
					it = export.CommitmentItem(c.Commitment)
				} else if t, terr := findTask(st, day, args[0]); terr == nil {
					it = export.TaskItem(t.Task)
				} else {
					return fmt.Errorf("no task or commitment on %s matches %q", day, args[0])
				}
				fmt.Println(export.GoogleCalendarURL(it, day, svc.Location()))
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, on)
	parent.AddCommand(cmd)
}

func addExportICS(parent *cobra.Command) {
	wo := &options.WindowOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write the plan of recent days as an iCalendar file",
		Long: `ICS writes the tasks and commitments of every day in the window. Weekly
rules become a single recurring event.

Examples:
  studyplan export ics > plan.ics
  studyplan export ics --last 4w --out plan.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _, err := timeutil.ParseWindow(wo.Last)
			if err != nil {
				return output.HandleError(err)
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				from, to := timeutil.Window(svc.Today(), days)
				doc := export.ICS(svc.State(), from, to, svc.Location(), svc.Now())
				if out == "" {
					_, err := fmt.Fprint(os.Stdout, doc)
					return err
				}
				if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
					return err
				}
				fmt.Printf("Wrote %s → %s to %s\n", from, to, out)
				return nil
			})
		},
	}

	options.AddWindowArgs(cmd, wo)
	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write instead of stdout.")
	parent.AddCommand(cmd)
}
