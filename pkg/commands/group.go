package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
)

func addGroup(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "group",
		Aliases: []string{"groups"},
		Short:   "Study groups: members, activity posts and files",
	}

	addGroupCreate(cmd)
	addGroupJoin(cmd)
	addGroupList(cmd)
	addGroupMembers(cmd)
	addGroupLeave(cmd)
	addGroupRemove(cmd)
	addGroupPost(cmd)
	addGroupActivities(cmd)
	addGroupUnpost(cmd)
	topLevel.AddCommand(cmd)
}

// groupSession is session for commands that need the groups repository and
// a signed in user.
func groupSession(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service, userID string) error) error {
	return session(cmd, func(ctx context.Context, svc *app.Service) error {
		uid, err := svc.GroupUser()
		if err != nil {
			return err
		}
		return fn(ctx, svc, uid)
	})
}

func addGroupCreate(parent *cobra.Command) {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group; you become its owner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				g, err := svc.Groups.CreateGroup(ctx, uid, name, description)
				if err != nil {
					return err
				}
				if ok, err := output.Print(g); ok {
					return err
				}
				fmt.Printf("Created %s, invite code %s\n", g.Name, g.InviteCode)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the group studies.")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addGroupJoin(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "join <invite-code>",
		Short: "Join a group with its invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				g, err := svc.Groups.JoinGroup(ctx, uid, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Joined %s\n", g.Name)
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addGroupList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				groups, err := svc.Groups.ListGroups(ctx, uid)
				if err != nil {
					return err
				}
				if ok, err := output.Print(groups); ok {
					return err
				}
				printer(nil).Groups(groups, uid)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addGroupMembers(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "members <group-id>",
		Short: "List the members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				members, err := svc.Groups.Members(ctx, args[0], uid)
				if err != nil {
					return err
				}
				if ok, err := output.Print(members); ok {
					return err
				}
				printer(nil).Members(members)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addGroupLeave(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "leave <group-id>",
		Short: "Leave a group. Owners delete the group instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				return svc.Groups.LeaveGroup(ctx, args[0], uid)
			})
		},
	}

	parent.AddCommand(cmd)
}

func addGroupRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <group-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a group you own, with its posts and files",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.DeleteGroup(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Group deleted")
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addGroupPost(parent *cobra.Command) {
	var body string

	cmd := &cobra.Command{
		Use:   "post <group-id> <title>",
		Short: "Post an activity topic to a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[1:], " ")
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				a, err := svc.Groups.AddActivity(ctx, args[0], uid, title, body)
				if err != nil {
					return err
				}
				fmt.Printf("Posted %s\n", a.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&body, "body", "b", "", "Text of the post.")
	parent.AddCommand(cmd)
}

func addGroupActivities(parent *cobra.Command) {
	ids := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "activities <group-id>",
		Short: "List the posts of a group, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				list, err := svc.Groups.ListActivities(ctx, args[0], uid)
				if err != nil {
					return err
				}
				if ok, err := output.Print(list); ok {
					return err
				}
				printer(ids).Activities(list)
				return nil
			})
		},
	}

	options.AddShowIDArgs(cmd, ids)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addGroupUnpost(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "unpost <activity-id>",
		Short: "Delete a post you wrote, or any post of a group you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				return svc.Groups.DeleteActivity(ctx, args[0], uid)
			})
		},
	}

	parent.AddCommand(cmd)
}
