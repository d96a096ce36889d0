package commands

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

const installPath = "tableflip.dev/studyplan/cmd/studyplan"

func addUpgrade(topLevel *cobra.Command) {
	ref := "latest"
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the studyplan cli with go install.",
		Example: `
studyplan upgrade
studyplan upgrade --ref v0.3.0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ex := exec.Command("go", "install", installPath+"@"+ref)
			var out bytes.Buffer
			ex.Stdout = &out
			ex.Stderr = &out
			if err := ex.Run(); err != nil {
				return fmt.Errorf("%s: %w\n%s", ex.String(), err, out.String())
			}
			fmt.Printf("%s\n", ex.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", ref, "Version, branch or commit to install.")
	topLevel.AddCommand(cmd)
}
