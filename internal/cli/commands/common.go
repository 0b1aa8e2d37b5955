package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pixgram-dev/pixgram/internal/authflow"
	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/cli/config"
	"github.com/pixgram-dev/pixgram/internal/cli/serverselect"
	envconfig "github.com/pixgram-dev/pixgram/internal/config"
	"github.com/pixgram-dev/pixgram/internal/logger"
	"github.com/pixgram-dev/pixgram/internal/page"
)

// ServerAlias is the global --server flag
var ServerAlias string

// openBrowser is replaced in tests
var openBrowser = defaultOpenBrowser

// resolveBaseURL picks the backend: the project's selected server when a
// pixgram.yaml is found, PIXGRAM_API_URL otherwise.
func resolveBaseURL(env *envconfig.Config, serverAlias string) (string, error) {
	configPath, err := config.FindConfigFile()
	if err != nil {
		if serverAlias != "" {
			return "", fmt.Errorf("failed to load config: %w\nRun 'pixgram init' to create a configuration file", err)
		}
		return env.API.URL, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return "", err
	}

	baseURL, err := config.NormalizeURL(server.URL)
	if err != nil {
		return "", fmt.Errorf("%w. Please edit %s and add a valid server URL", err, config.ConfigFileName)
	}
	return baseURL, nil
}

// openApp loads configuration and wires the client for the selected server.
// The caller must Close the app.
func openApp() (*app.App, error) {
	env, err := envconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(env.Logging.Level, env.Logging.Format)

	baseURL, err := resolveBaseURL(env, ServerAlias)
	if err != nil {
		return nil, err
	}

	return app.New(baseURL, env, logger.GetLogger(), app.Options{
		RememberUser: true,
	})
}

func newActions(a *app.App, p *page.Page) *authflow.Actions {
	return authflow.NewActions(a.Store, a.Provider, a.Sessions, a.Profiles, p, a.Log)
}

func defaultOpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
