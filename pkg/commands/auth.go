package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/identity"
)

func addAuth(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to sync the study plan across devices",
	}

	addAuthSignUp(cmd)
	addAuthSignIn(cmd)
	addAuthSignOut(cmd)
	addAuthOAuth(cmd)
	addAuthReset(cmd)
	addAuthWhoAmI(cmd)
	topLevel.AddCommand(cmd)
}

// readPassword returns flag when set. Otherwise it prompts without echo on a
// terminal, or reads the first line of r.
func readPassword(flag string, r io.Reader) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		if len(b) == 0 {
			return "", errors.New("password required")
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password required")
	}
	return line, nil
}

func addAuthSignUp(parent *cobra.Command) {
	var name, password string

	cmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.RequireOnline(); err != nil {
					return err
				}
				pw, err := readPassword(password, os.Stdin)
				if err != nil {
					return err
				}
				s, err := svc.Identity.SignUp(ctx, args[0], pw, name)
				if err != nil {
					return err
				}
				fmt.Printf("Welcome %s, your plan now syncs to %s\n", displayName(s), s.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your full name.")
	cmd.Flags().StringVar(&password, "password", "", "Password, read from stdin when not set.")
	parent.AddCommand(cmd)
}

func addAuthSignIn(parent *cobra.Command) {
	var password string

	cmd := &cobra.Command{
		Use:   "signin <email>",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password. After five failed attempts within 15
minutes sign-in is locked on this device for 15 minutes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.RequireOnline(); err != nil {
					return err
				}
				pw, err := readPassword(password, os.Stdin)
				if err != nil {
					return err
				}
				s, err := svc.Identity.SignInWithPassword(ctx, args[0], pw)
				if errors.Is(err, identity.ErrInvalidCredentials) {
					if left := svc.Identity.Lockout().Remaining(); left > 0 {
						return fmt.Errorf("%w, %d attempts left", err, left)
					}
				}
				if err != nil {
					return err
				}
				fmt.Printf("Signed in as %s\n", displayName(s))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password, read from stdin when not set.")
	parent.AddCommand(cmd)
}

func addAuthSignOut(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Sign out and reset the plan on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.Identity.SignOut(ctx); err != nil {
					return err
				}
				fmt.Println("Signed out")
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addAuthOAuth(parent *cobra.Command) {
	var code, state string

	cmd := &cobra.Command{
		Use:       "oauth <google|github>",
		Short:     "Sign in with an OAuth provider",
		ValidArgs: []string{identity.ProviderGoogle, identity.ProviderGitHub},
		Long: `Without --code, print the URL to open in a browser. After authorising,
run the command again with the code from the redirect.`,
		Example: `
studyplan auth oauth google
studyplan auth oauth google --code 4/0AX4XfWh...
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.RequireOnline(); err != nil {
					return err
				}
				if code == "" {
					if state == "" {
						state = uuid.NewString()
					}
					url, err := svc.Identity.SignInWithOAuth(args[0], state)
					if err != nil {
						return err
					}
					fmt.Println(url)
					return nil
				}
				s, err := svc.Identity.CompleteOAuth(ctx, args[0], code)
				if err != nil {
					return err
				}
				fmt.Printf("Signed in as %s\n", displayName(s))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorisation code from the redirect.")
	cmd.Flags().StringVar(&state, "state", "", "State echoed on the redirect, random by default.")
	parent.AddCommand(cmd)
}

func addAuthReset(parent *cobra.Command) {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset [email]",
		Short: "Reset a forgotten password",
		Example: `
studyplan auth reset ana@example.com
studyplan auth reset --token 9c1d... --password n3w-secret
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				if err := svc.RequireOnline(); err != nil {
					return err
				}
				if token != "" {
					pw, err := readPassword(password, os.Stdin)
					if err != nil {
						return err
					}
					if err := svc.Identity.CompletePasswordReset(ctx, token, pw); err != nil {
						return err
					}
					fmt.Println("Password changed, sign in again")
					return nil
				}
				if len(args) == 0 {
					return errors.New("requires an email, or --token to finish a reset")
				}
				if _, err := svc.Identity.ResetPasswordForEmail(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("If the address has an account, a reset token is on its way.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reset token.")
	cmd.Flags().StringVar(&password, "password", "", "New password, read from stdin when not set.")
	parent.AddCommand(cmd)
}

func addAuthWhoAmI(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(ctx context.Context, svc *app.Service) error {
				s, err := svc.Session(ctx)
				if err != nil {
					return err
				}
				s.Token = ""
				if ok, err := output.Print(s); ok {
					return err
				}
				fmt.Printf("%s <%s>\n", displayName(s), s.Email)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func displayName(s identity.Session) string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Email
}
