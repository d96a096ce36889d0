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

func addCommit(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "commit",
		Aliases: []string{"commitment"},
		Short:   "Add and remove timed commitments",
	}

	addCommitAdd(cmd)
	addCommitList(cmd)
	addCommitEdit(cmd)
	addCommitRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addCommitAdd(parent *cobra.Command) {
	oo := &options.OnOptions{}
	ro := &options.RuleOptions{}
	var at string

	cmd := &cobra.Command{
		Use:   "add <text> --at HH:MM",
		Short: "Add a commitment",
		Example: `
studyplan commit add --at 14:00 chemistry lab
studyplan commit add --at 8:30 --weekday TU --subject Math lecture
`,
		Args: cobra.MinimumNArgs(1),
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
				id := d.AddCommitment(text, at, ro.Subject, rule)
				if id == "" {
					return fmt.Errorf("a commitment needs text and a valid --at time, got %q", at)
				}
				d.Commit(svc.Planner)
				if ok, err := output.Print(map[string]string{"id": id, "day": day.String()}); ok {
					return err
				}
				fmt.Printf("Added commitment %s%s\n", short(id), added(day, rule))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Time of the commitment, HH:MM.")
	_ = cmd.MarkFlagRequired("at")
	options.AddOnArgs(cmd, oo)
	options.AddRuleArgs(cmd, ro)
	options.AddOutputArg(cmd, output)
	registerSubjectCompletion(cmd)
	parent.AddCommand(cmd)
}

func addCommitList(parent *cobra.Command) {
	oo := &options.OnOptions{}
	ids := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the commitments of a day in time order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				st := svc.State()
				cs := st.EffectiveCommitments(day)
				if ok, err := output.Print(cs); ok {
					return err
				}
				pp := printer(ids)
				pp.TitleWithCount(day.String(), len(cs), "commitment")
				pp.Commitments(st, cs)
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	options.AddShowIDArgs(cmd, ids)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addCommitEdit(parent *cobra.Command) {
	oo := &options.OnOptions{}
	var text, at string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the text or time of a commitment",
		Example: `
studyplan commit edit 3f2a --at 15:30
studyplan commit edit 3f2a --text "lab report review"
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && at == "" {
				return errors.New("nothing to change, set --text or --at")
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				c, err := findCommitment(svc.State(), day, args[0])
				if err != nil {
					return err
				}
				before := svc.State()
				after := svc.Update(func(st planner.State) planner.State {
					if c.Virtual {
						return st.EditRecurring(c.ID, text, at)
					}
					return st.EditCommitment(day, c.ID, text, at)
				})
				if after.Equal(before) {
					return fmt.Errorf("commitment unchanged, check the --at time %q", at)
				}
				fmt.Printf("Updated commitment %s\n", short(c.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New text.")
	cmd.Flags().StringVar(&at, "at", "", "New time, HH:MM.")
	options.AddOnArgs(cmd, oo)
	parent.AddCommand(cmd)
}

func addCommitRemove(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a commitment; for a weekly commitment, the rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				day, err := oo.GetOn(svc.Location())
				if err != nil {
					return err
				}
				c, err := findCommitment(svc.State(), day, args[0])
				if err != nil {
					return err
				}
				d := planner.NewDraft(svc.State(), day)
				d.RemoveCommitment(c.ID)
				d.Commit(svc.Planner)
				fmt.Printf("Removed %q at %s\n", c.Text, c.Time)
				return nil
			})
		},
	}

	options.AddOnArgs(cmd, oo)
	parent.AddCommand(cmd)
}
