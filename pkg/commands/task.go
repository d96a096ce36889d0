package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/planner"
)

func addTask(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, complete and remove tasks",
	}

	addTaskAdd(cmd)
	addTaskList(cmd)
	addTaskDone(cmd)
	addTaskEdit(cmd)
	addTaskSubject(cmd)
	addTaskRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addTaskAdd(parent *cobra.Command) {
	oo := &options.OnOptions{}
	ro := &options.RuleOptions{}

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Example: `
studyplan task add read chapter 4
studyplan task add --on 2025-03-10 --subject Physics problem set 2
studyplan task add --daily review flashcards
studyplan task add --weekday FR weekly quiz
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				rule, err := ro.Rule(day)
				if err != nil {
					return err
				}
				d := planner.NewDraft(svc.State(), day)
				id := d.AddTask(text, ro.Subject, rule)
				if id == "" {
					return errors.New("task text is empty")
				}
				d.Commit(svc.Planner)
				if ok, err := output.Print(map[string]string{"id": id, "day": day.String()}); ok {
					return err
				}
				fmt.Printf("Added task %s%s\n", short(id), added(day, rule))
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	options.AddRuleArgs(cmd, ro)
	options.AddOutputArg(cmd, output)
	registerSubjectCompletion(cmd)
	parent.AddCommand(cmd)
}

func addTaskList(parent *cobra.Command) {
	oo := &options.OnOptions{}
	ids := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a day, weekly rules included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				st := svc.State()
				tasks := st.EffectiveTasks(day)
				if ok, err := output.Print(tasks); ok {
					return err
				}
				pp := printer(ids)
				pp.TitleWithCount(day.String(), len(tasks), "task")
				pp.Tasks(st, tasks)
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	options.AddShowIDArgs(cmd, ids)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTaskDone(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"toggle", "complete"},
		Short:   "Toggle the completed flag of a task",
		Long: `Toggle the completed flag of a task. The flag of a weekly task is
shared by every week it appears on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				d := planner.NewDraft(svc.State(), day)
				t, err := findTask(svc.State(), day, args[0])
				if err != nil {
					return err
				}
				d.ToggleTask(t.ID)
				d.Commit(svc.Planner)
				state := "done"
				if t.Completed {
					state = "open"
				}
				fmt.Printf("Marked %q %s\n", t.Text, state)
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	parent.AddCommand(cmd)
}

func addTaskEdit(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				t, err := findTask(svc.State(), day, args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State {
					if t.Virtual {
						return st.EditRecurring(t.ID, text, "")
					}
					return st.EditTask(day, t.ID, text)
				})
				fmt.Printf("Updated task %s\n", short(t.ID))
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	parent.AddCommand(cmd)
}

func addTaskSubject(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "subject <id> [subject]",
		Short: "Set or clear the subject of a task on a day",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := ""
			if len(args) == 2 {
				subject = args[1]
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				t, err := findTask(svc.State(), day, args[0])
				if err != nil {
					return err
				}
				if t.Virtual {
					return errors.New("weekly tasks keep the subject they were created with")
				}
				svc.Update(func(st planner.State) planner.State {
					return st.SetTaskSubject(day, t.ID, subject)
				})
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	parent.AddCommand(cmd)
}

func addTaskRemove(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a task; for a weekly task, the rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				t, err := findTask(svc.State(), day, args[0])
				if err != nil {
					return err
				}
				d := planner.NewDraft(svc.State(), day)
				d.RemoveTask(t.ID)
				d.Commit(svc.Planner)
				fmt.Printf("Removed %q\n", t.Text)
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	parent.AddCommand(cmd)
}
