package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pixgram-dev/pixgram/internal/credentials"
	"github.com/pixgram-dev/pixgram/internal/identity"
)

const (
	configDirName  = "pixgram"
	configFileName = "config.json"

	// RefreshTokenKey is the secrets slot key of the remembered refresh token
	RefreshTokenKey = "refreshToken"
)

// UserConfig represents the user's local configuration stored in ~/.config/pixgram/config.json
type UserConfig struct {
	SelectedServerURL string `json:"selected_server_url"`

	// Signed-in identity per server URL, so the provider can restore its
	// state the way a browser keeps it across page loads
	Users map[string]*identity.User `json:"users,omitempty"`
}

// GetConfigDir returns ~/.config/pixgram
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	// holds refresh tokens
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedServer updates the selected server URL and saves the config
func SetSelectedServer(serverURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServerURL = serverURL
	return Save(cfg)
}

// GetSelectedServer returns the selected server URL, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServerURL, nil
}

// UserStore keeps the signed-in identity for one server in the user config.
// The refresh token goes to secrets and never into the config file.
type UserStore struct {
	mu        sync.Mutex
	serverURL string
	secrets   credentials.Slot
}

// NewUserStore returns the identity persistence for serverURL. With nil
// secrets the refresh token is not kept.
func NewUserStore(serverURL string, secrets credentials.Slot) *UserStore {
	return &UserStore{serverURL: serverURL, secrets: secrets}
}

// LoadUser returns the remembered user, or nil when signed out
func (s *UserStore) LoadUser() (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	stored := cfg.Users[s.serverURL]
	if stored == nil {
		return nil, nil
	}

	user := *stored
	if s.secrets != nil {
		refresh, found, err := s.secrets.Get(RefreshTokenKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read refresh token: %w", err)
		}
		if found {
			user.RefreshToken = refresh
		}
	}
	return &user, nil
}

// SaveUser remembers user; nil forgets it
func (s *UserStore) SaveUser(user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := Load()
	if err != nil {
		return err
	}

	if user == nil {
		if s.secrets != nil {
			if err := s.secrets.Delete(RefreshTokenKey); err != nil {
				return fmt.Errorf("failed to delete refresh token: %w", err)
			}
		}
		if _, ok := cfg.Users[s.serverURL]; !ok {
			return nil
		}
		delete(cfg.Users, s.serverURL)
		return Save(cfg)
	}

	if s.secrets != nil && user.RefreshToken != "" {
		if err := s.secrets.Set(RefreshTokenKey, user.RefreshToken); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
	}
	if cfg.Users == nil {
		cfg.Users = make(map[string]*identity.User)
	}
	u := *user
	u.RefreshToken = ""
	cfg.Users[s.serverURL] = &u
	return Save(cfg)
}
