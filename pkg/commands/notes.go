package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/planner"
)

func addNotes(topLevel *cobra.Command) {
	var set, appendNote bool

	cmd := &cobra.Command{
		Use:   "notes [text]",
		Short: "Show or change the general notes",
		Example: `
studyplan notes
studyplan notes --append exam on the 14th, bring calculator
studyplan notes --set ""
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				switch {
				case set:
					svc.Update(func(st planner.State) planner.State { return st.SetNotes(text) })
				case appendNote && text != "":
					svc.Update(func(st planner.State) planner.State {
						notes := strings.TrimRight(st.GeneralNotes, "\n")
						if notes != "" {
							notes += "\n"
						}
						return st.SetNotes(notes + text)
					})
				}
				notes := svc.State().GeneralNotes
				if ok, err := output.Print(map[string]string{"notes": notes}); ok {
					return err
				}
				printer(nil).Notes("Notes", notes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&set, "set", false, "Replace the notes with the arguments.")
	cmd.Flags().BoolVarP(&appendNote, "append", "a", false, "Append the arguments as a new line.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
