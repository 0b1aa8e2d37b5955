package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewWebCmd creates the web command
func NewWebCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "web [path]",
		Short: "Open the pixgram site in browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			path := "/"
			if len(args) > 0 {
				path = args[0]
			}
			return runWeb(cmd.OutOrStdout(), a.BaseURL, path)
		},
	}
}

func runWeb(w io.Writer, baseURL, path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	siteURL := baseURL + path

	fmt.Fprintf(w, "Opening %s...\n", siteURL)
	if err := openBrowser(siteURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, siteURL)
	}
	return nil
}
