package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/studyplan/pkg/commands/options"
)

var (
	output = &options.OutputOptions{}
	root   = &rootOptions{}
)

type rootOptions struct {
	ConfigFile string
	Offline    bool
	Verbose    bool
}

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "studyplan",
		Short: base.Wrap80("Plan study time, tasks and commitments on the command line."),
		Long: base.Wrap80("studyplan keeps a study calendar on this device and, when signed in, " +
			"syncs it to your account a few seconds after each change."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&root.ConfigFile, "config", "",
		"Config file (default is $HOME/.studyplan.yaml).")
	cmd.PersistentFlags().BoolVar(&root.Offline, "offline", false,
		"Do not connect to the database.")
	cmd.PersistentFlags().BoolVarP(&root.Verbose, "verbose", "v", false,
		"Log to stderr as well as the log file.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addDay(topLevel)
	addTask(topLevel)
	addCommit(topLevel)
	addMinutes(topLevel)
	addRecurring(topLevel)
	addSubject(topLevel)
	addProgress(topLevel)
	addGoal(topLevel)
	addNotes(topLevel)
	addReport(topLevel)
	addInsights(topLevel)
	addMigration(topLevel)
	addSync(topLevel)
	addAuth(topLevel)
	addGroup(topLevel)
	addFile(topLevel)
	addExport(topLevel)
	addTheme(topLevel)
	addDaemon(topLevel)
	addConfig(topLevel)
	addSchema(topLevel)
	addVersion(topLevel)
	addUpgrade(topLevel)
	addCompletions(topLevel)
}
