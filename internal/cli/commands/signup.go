package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/authflow"
	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/page"
)

// NewSignupCmd creates the signup command
func NewSignupCmd() *cobra.Command {
	var form authflow.SignupForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a pixgram account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Email == "" {
				form.Email = os.Getenv("PIXGRAM_EMAIL")
			}
			if form.Password == "" {
				form.Password = os.Getenv("PIXGRAM_PASSWORD")
			}
			if form.Password == "" && form.Email != "" {
				var err error
				if form.Password, err = readPassword(); err != nil {
					return err
				}
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runSignup(cmd.Context(), cmd.OutOrStdout(), a, form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Display name (defaults to the part of the email before @)")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address (or set PIXGRAM_EMAIL)")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password, at least 6 characters (or set PIXGRAM_PASSWORD)")

	return cmd
}

func runSignup(ctx context.Context, w io.Writer, a *app.App, form authflow.SignupForm) error {
	p := page.Load("/signup")

	if _, err := newActions(a, p).Signup(ctx, form); err != nil {
		return err
	}

	fmt.Fprintln(w, "✓ Sign up successful! Redirecting...")
	printRedirect(w, p)
	return nil
}
