package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "pixgram.yaml"

// Server is a pixgram backend the CLI can talk to
type Server struct {
	Alias string `yaml:"alias"`
	URL   string `yaml:"url"`
}

// Config represents the project configuration file
type Config struct {
	Servers []Server `yaml:"servers"`
}

// DefaultConfig returns a configuration pointing at a local backend
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias: "local",
				URL:   "http://localhost:8000",
			},
		},
	}
}

// NormalizeURL validates a backend URL and strips trailing slashes. A bare
// host gets https://.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("server URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// FindConfigFile searches for pixgram.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURLOrAlias finds a server by URL or alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].URL == urlOrAlias {
			return &c.Servers[i], nil
		}
	}
	if normalized, err := NormalizeURL(urlOrAlias); err == nil {
		for i := range c.Servers {
			if c.Servers[i].URL == normalized {
				return &c.Servers[i], nil
			}
		}
	}
	for i := range c.Servers {
		if c.Servers[i].Alias == urlOrAlias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL or alias '%s' not found", urlOrAlias)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
