package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/identity"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in user and cached token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runStatus(cmd.OutOrStdout(), a, time.Now())
		},
	}
}

func runStatus(w io.Writer, a *app.App, now time.Time) error {
	fmt.Fprintf(w, "Server: %s\n", a.BaseURL)

	if user := a.Provider.CurrentUser(); user != nil {
		fmt.Fprintf(w, "Signed in as: %s (%s)\n", user.Email, user.UID)
	} else {
		fmt.Fprintln(w, "Signed in as: nobody")
	}

	token, ok := a.Store.Read()
	if !ok {
		fmt.Fprintln(w, "Token: none cached (run 'pixgram login')")
		return nil
	}

	claims, err := identity.ParseClaims(token)
	if err != nil {
		fmt.Fprintf(w, "Token: cached, unreadable (%v)\n", err)
		return nil
	}

	fmt.Fprintln(w, "Token: cached")
	fmt.Fprintf(w, "  Subject: %s\n", claims.Subject)
	if claims.Email != "" {
		fmt.Fprintf(w, "  Email:   %s\n", claims.Email)
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		state := "expires"
		if !exp.After(now) {
			state = "expired"
		}
		fmt.Fprintf(w, "  %s %s (%s)\n", state, humanize.RelTime(exp, now, "ago", "from now"), exp.Local().Format(time.RFC1123))
	}
	return nil
}
