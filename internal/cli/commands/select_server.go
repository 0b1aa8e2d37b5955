package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/cli/config"
	"github.com/pixgram-dev/pixgram/internal/cli/serverselect"
	"github.com/pixgram-dev/pixgram/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ pixgram select-server                              # Interactive selection
  $ pixgram select-server https://pixgram.example.com  # Select by URL
  $ pixgram select-server production                   # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'pixgram init' to create a configuration file", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Printf("Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
