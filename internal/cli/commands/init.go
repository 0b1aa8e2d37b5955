package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/cli/config"
)

type initOptions struct {
	alias       string
	skipBrowser bool
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a pixgram server to ./pixgram.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitWithOptions(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Alias for the server (default server-N)")
	cmd.Flags().BoolVar(&opts.skipBrowser, "no-browser", false, "Don't open the signup page")

	return cmd
}

func runInitWithOptions(args []string, opts *initOptions) error {
	serverURL, err := config.NormalizeURL(args[0])
	if err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Printf("Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	serverExists := false
	for _, server := range cfg.Servers {
		if server.URL == serverURL {
			serverExists = true
			break
		}
	}

	if serverExists {
		fmt.Printf("Server %s already exists in %s\n", serverURL, config.ConfigFileName)
	} else {
		alias := opts.alias
		if alias == "" {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}
		if _, err := cfg.GetServerByAlias(alias); err == nil {
			return fmt.Errorf("alias '%s' is already used in %s", alias, config.ConfigFileName)
		}

		cfg.Servers = append(cfg.Servers, config.Server{
			Alias: alias,
			URL:   serverURL,
		})

		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Printf("✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, serverURL, alias)
		} else {
			fmt.Printf("✓ Added server %s (%s) to ./%s\n", serverURL, alias, config.ConfigFileName)
		}
	}

	if !opts.skipBrowser {
		signupURL := serverURL + "/signup"
		fmt.Printf("\nOpening signup page at %s...\n", signupURL)

		if err := openBrowser(signupURL); err != nil {
			fmt.Printf("⚠ Could not open browser automatically: %v\n", err)
			fmt.Printf("Please visit: %s\n", signupURL)
		}
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'pixgram signup' to create an account")
	fmt.Println("  2. Run 'pixgram login' to authenticate")

	return nil
}
