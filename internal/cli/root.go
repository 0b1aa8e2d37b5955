package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "pixgram",
	Short: "Pixgram - sign in and browse a pixgram site from the terminal",
	Long: `Pixgram CLI - Manage your pixgram session.

Signs in with the site's identity provider, keeps the session token in your
OS keychain (or a local SQLite file) and sends it with every request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&commands.ServerAlias, "server", "s", "", "Server URL or alias from pixgram.yaml")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pixgram version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewSignupCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewOpenCmd())
	rootCmd.AddCommand(commands.NewFetchCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewAgoCmd())
	rootCmd.AddCommand(commands.NewWebCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
