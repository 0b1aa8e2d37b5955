package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/authflow"
	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/page"
)

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Load a page the way the site does: guard, then session check",
		Long: `Load a page the way the site does.

Protected pages without a cached token redirect to /login before anything
is sent. Otherwise the sign-in state is checked, the backend session is
initialized, and the page is fetched.

With --watch the command keeps reacting to sign-in changes (for example a
login from another terminal) until it is redirected or interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runOpen(ctx, cmd.OutOrStdout(), a, args[0], watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep reacting to sign-in changes")

	return cmd
}

func runOpen(ctx context.Context, w io.Writer, a *app.App, path string, watch bool) error {
	p := page.Load(path)
	m := authflow.NewMachine(a.Store, a.Provider, a.Sessions, p, a.Log)

	fmt.Fprintf(w, "Opening %s (%s page)\n", p.Path(), p.Class())

	err := m.Load(ctx, a.Provider, watch, func(out authflow.Outcome) {
		if out.Err != nil {
			fmt.Fprintf(w, "  %s: %s (%v)\n", out.State, out.Action, out.Err)
			return
		}
		fmt.Fprintf(w, "  %s: %s\n", out.State, out.Action)
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	if _, moved := p.Redirected(); moved {
		printRedirect(w, p)
		return nil
	}
	if watch {
		return nil
	}

	return fetchPage(ctx, w, a, http.MethodGet, p.Path(), nil)
}
