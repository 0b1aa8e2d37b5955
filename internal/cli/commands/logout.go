package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/page"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the cached token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runLogout(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}
}

func runLogout(ctx context.Context, w io.Writer, a *app.App) error {
	p := page.Load(page.HomePath)

	if err := newActions(a, p).SignOut(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w, "✓ Signed out")
	printRedirect(w, p)
	return nil
}
