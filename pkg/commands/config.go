package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/config"
)

func addConfig(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or show the configuration file",
	}

	addConfigInit(cmd)
	addConfigShow(cmd)
	topLevel.AddCommand(cmd)
}

func addConfigInit(parent *cobra.Command) {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if path == "" {
				p, err := config.DefaultFile()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.Init(path, config.Default(), force); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Where to write, defaults to ~/.studyplan.yaml.")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file.")
	parent.AddCommand(cmd)
}

func addConfigShow(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.Load(root.ConfigFile)
			if err != nil {
				return output.HandleError(err)
			}
			if ok, err := output.Print(cfg); ok {
				return err
			}
			if cfg.File != "" {
				fmt.Printf("# %s\n", cfg.File)
			}
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(b))
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}
