package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/printers"
)

func addSubject(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "subject",
		Aliases: []string{"subjects"},
		Short:   "Manage study subjects and their colours",
	}

	addSubjectList(cmd)
	addSubjectAdd(cmd)
	addSubjectRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addSubjectList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				st := svc.State()
				if ok, err := output.Print(printers.SortSubjects(st.Subjects)); ok {
					return err
				}
				printer(nil).Subjects(st)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addSubjectAdd(parent *cobra.Command) {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subject, or change the colour of an existing one",
		Example: `
studyplan subject add Chemistry --color "#e67e22"
studyplan subject add "História" --color 3498db
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			hex, err := planner.NormalizeColor(color)
			if err != nil {
				return output.HandleError(err)
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				svc.Update(func(st planner.State) planner.State { return st.AddSubject(name, hex) })
				fmt.Printf("Subject %s is %s\n", name, hex)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&color, "color", "c", "#3b82f6", "Colour as #rrggbb.")
	parent.AddCommand(cmd)
}

func addSubjectRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Remove a subject. Items keep the subject name they were given.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				if _, ok := svc.State().Subject(name); !ok {
					return fmt.Errorf("no subject named %q", name)
				}
				svc.Update(func(st planner.State) planner.State { return st.RemoveSubject(name) })
				return nil
			})
		},
	}

	registerSubjectArgs(cmd)
	parent.AddCommand(cmd)
}
