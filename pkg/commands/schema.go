package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
)

func addSchema(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the database tables",
		Long: `Schema creates the tables for accounts, planner states and groups in the
configured database. Existing tables are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.CreateSchema(ctx); err != nil {
					return err
				}
				fmt.Println("Schema ready")
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
