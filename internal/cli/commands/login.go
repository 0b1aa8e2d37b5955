package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pixgram-dev/pixgram/internal/authflow"
	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/page"
)

// readPassword prompts on the terminal; replaced in tests
var readPassword = promptPassword

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and start a pixgram session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = os.Getenv("PIXGRAM_EMAIL")
			}
			if password == "" {
				password = os.Getenv("PIXGRAM_PASSWORD")
			}
			if email == "" {
				return fmt.Errorf("email is required (use --email flag or PIXGRAM_EMAIL env var)")
			}
			if password == "" {
				var err error
				if password, err = readPassword(); err != nil {
					return err
				}
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runLogin(cmd.Context(), cmd.OutOrStdout(), a, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set PIXGRAM_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PIXGRAM_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, w io.Writer, a *app.App, email, password string) error {
	p := page.Load(page.LoginPath)

	fmt.Fprintf(w, "Logging in to %s...\n", a.BaseURL)

	if _, err := newActions(a, p).Login(ctx, authflow.LoginForm{Email: email, Password: password}); err != nil {
		return err
	}

	fmt.Fprintln(w, "✓ Login successful!")
	if user := a.Provider.CurrentUser(); user != nil {
		fmt.Fprintf(w, "  User: %s\n", user.Email)
	}
	printRedirect(w, p)
	return nil
}

func promptPassword() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or PIXGRAM_PASSWORD env var)")
	}

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func printRedirect(w io.Writer, p *page.Page) {
	if target, ok := p.Redirected(); ok {
		fmt.Fprintf(w, "→ Redirected to %s\n", target)
	}
}
