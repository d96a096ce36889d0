package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
)

var themes = []string{"light", "dark", "system"}

func addTheme(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:       "theme [light|dark|system]",
		Short:     "Show or set the preferred theme of this device",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: themes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				if len(args) == 0 {
					theme := svc.Local.Theme()
					if theme == "" {
						theme = "system"
					}
					fmt.Println(theme)
					return nil
				}
				theme := strings.ToLower(args[0])
				for _, t := range themes {
					if t == theme {
						return svc.Local.SetTheme(theme)
					}
				}
				return fmt.Errorf("unknown theme %q, want one of %s", args[0], strings.Join(themes, ", "))
			})
		},
	}

	topLevel.AddCommand(cmd)
}
