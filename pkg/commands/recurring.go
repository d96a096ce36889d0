package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/planner"
)

func addRecurring(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rules"},
		Short:   "Manage weekly tasks and commitments",
	}

	addRecurringList(cmd)
	addRecurringDone(cmd)
	addRecurringEdit(cmd)
	addRecurringRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addRecurringList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List weekly rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				st := svc.State()
				if ok, err := output.Print(map[string]interface{}{
					"tasks":       st.RecurringTasks,
					"commitments": st.RecurringCommitments,
				}); ok {
					return err
				}
				printer(nil).Recurring(st)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addRecurringDone(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle the completed flag of a weekly task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findRule(svc.State(), args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State { return st.ToggleRecurringCompleted(id) })
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addRecurringEdit(parent *cobra.Command) {
	var text, at string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the text, or a commitment's time, of a weekly rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && at == "" {
				return errors.New("nothing to change, set --text or --at")
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findRule(svc.State(), args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State { return st.EditRecurring(id, text, at) })
				fmt.Printf("Updated rule %s\n", short(id))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New text.")
	cmd.Flags().StringVar(&at, "at", "", "New time of a commitment rule, HH:MM.")
	parent.AddCommand(cmd)
}

func addRecurringRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a weekly rule from every week",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findRule(svc.State(), args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State { return st.RemoveRecurring(id) })
				fmt.Printf("Removed rule %s\n", short(id))
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}
