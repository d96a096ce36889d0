package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
)

var statusNames = map[string]planner.ProgressStatus{
	"in-progress": planner.StatusInProgress,
	"active":      planner.StatusInProgress,
	"completed":   planner.StatusCompleted,
	"done":        planner.StatusCompleted,
	"paused":      planner.StatusPaused,
}

func addProgress(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Track courses of study per subject",
	}

	addProgressList(cmd)
	addProgressAdd(cmd)
	addProgressStatus(cmd)
	addProgressNotes(cmd)
	addProgressTopic(cmd)
	addProgressRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addProgressList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List progress records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				st := svc.State()
				if ok, err := output.Print(st.SubjectProgress); ok {
					return err
				}
				printer(nil).Progress(st)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addProgressAdd(parent *cobra.Command) {
	var start, notes string

	cmd := &cobra.Command{
		Use:   "add <subject>",
		Short: "Start tracking a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := strings.Join(args, " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				from := svc.Today()
				if start != "" {
					var err error
					if from, err = datekey.ParseLoose(start, time.Now().In(svc.Location())); err != nil {
						return err
					}
				}
				var id string
				svc.Update(func(st planner.State) planner.State {
					next := st.AddProgress(planner.SubjectProgress{SubjectName: subject, StartDate: from, Notes: notes})
					if n := len(next.SubjectProgress); n > len(st.SubjectProgress) {
						id = next.SubjectProgress[n-1].ID
					}
					return next
				})
				if id == "" {
					return fmt.Errorf("could not track %q", subject)
				}
				fmt.Printf("Tracking %s since %s (%s)\n", subject, from, short(id))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start date, defaults to today.")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes.")
	registerSubjectArgs(cmd)
	parent.AddCommand(cmd)
}

func addProgressStatus(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:       "status <id> <in-progress|completed|paused>",
		Short:     "Change the status of a record",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"in-progress", "completed", "paused"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := statusNames[strings.ToLower(args[1])]
			if !ok {
				return output.HandleError(fmt.Errorf("unknown status %q", args[1]))
			}
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findProgress(svc.State(), args[0])
				if err != nil {
					return err
				}
				today := svc.Today()
				svc.Update(func(st planner.State) planner.State { return st.SetProgressStatus(id, status, today) })
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addProgressNotes(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Replace the notes of a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes := strings.Join(args[1:], " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findProgress(svc.State(), args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State { return st.SetProgressNotes(id, notes) })
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addProgressTopic(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "topic <id> <topic>",
		Short: "Record a studied topic",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args[1:], " ")
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findProgress(svc.State(), args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State { return st.AddTopic(id, topic) })
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addProgressRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				id, err := findProgress(svc.State(), args[0])
				if err != nil {
					return err
				}
				svc.Update(func(st planner.State) planner.State { return st.RemoveProgress(id) })
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}
