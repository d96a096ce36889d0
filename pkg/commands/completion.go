package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/config"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(studyplan completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(studyplan completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletionV2(os.Stdout, true)
		},
	}

	topLevel.AddCommand(cmd)
}

// subjectCompletions lists the subjects of the cached plan that start with
// toComplete. It never touches the database.
func subjectCompletions(toComplete string) []string {
	cfg, err := config.Load(root.ConfigFile)
	if err != nil {
		return nil
	}
	ctx := context.Background()
	svc, err := app.Open(ctx, cfg, zap.NewNop(), app.Options{Offline: true})
	if err != nil {
		return nil
	}
	defer func() { _, _ = svc.Close(ctx) }()

	var out []string
	for _, s := range svc.State().Subjects {
		if strings.HasPrefix(strings.ToLower(s.Name), strings.ToLower(toComplete)) {
			out = append(out, s.Name)
		}
	}
	return out
}

func completeSubjects(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return subjectCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
}

// registerSubjectCompletion completes the --subject flag of cmd.
func registerSubjectCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("subject", completeSubjects)
}

// registerSubjectArgs completes the first argument of cmd with a subject.
func registerSubjectArgs(cmd *cobra.Command) {
	cmd.ValidArgsFunction = func(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return completeSubjects(c, args, toComplete)
	}
}
