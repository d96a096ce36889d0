package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
)

func addFile(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "file",
		Aliases: []string{"files"},
		Short:   "Share files with a study group",
	}

	addFileUpload(cmd)
	addFileList(cmd)
	addFileURL(cmd)
	addFileRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addFileUpload(parent *cobra.Command) {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <group-id> <path>",
		Short: "Attach a file to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				if name == "" {
					name = filepath.Base(args[1])
				}
				rec, err := svc.UploadFile(ctx, args[0], name, f)
				if err != nil {
					return err
				}
				if ok, err := output.Print(rec); ok {
					return err
				}
				fmt.Printf("Uploaded %s (%s)\n", rec.Name, rec.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name shown to the group, defaults to the file name.")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addFileList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list <group-id>",
		Short: "List the files of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				files, err := svc.Groups.ListFiles(ctx, args[0], uid)
				if err != nil {
					return err
				}
				if ok, err := output.Print(files); ok {
					return err
				}
				printer(nil).Files(files)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addFileURL(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "url <group-id> <file-id>",
		Short: "Print the public URL of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return groupSession(cmd, func(ctx context.Context, svc *app.Service, uid string) error {
				files, err := svc.Groups.ListFiles(ctx, args[0], uid)
				if err != nil {
					return err
				}
				for _, f := range files {
					if f.ID == args[1] {
						fmt.Println(svc.Blobs.PublicURL(f.Path))
						return nil
					}
				}
				return fmt.Errorf("no file %s in group %s", args[1], args[0])
			})
		},
	}

	parent.AddCommand(cmd)
}

func addFileRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <file-id>",
		Aliases: []string{"remove"},
		Short:   "Delete a file you uploaded, or any file of a group you own",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				f, err := svc.DeleteFile(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", f.Name)
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}
