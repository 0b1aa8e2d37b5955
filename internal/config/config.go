package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	IdentityFirebase = "firebase"
	IdentityMemory   = "memory"

	TokenBackendKeyring = "keyring"
	TokenBackendSQLite  = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// Backend the CLI talks to (serves /auth/init and the app pages)
	API APIConfig

	// Identity provider configuration
	Identity IdentityConfig

	// Where the cached session token is kept
	Tokens TokenConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds backend configuration
type APIConfig struct {
	URL string
}

// IdentityConfig selects and configures the identity provider
type IdentityConfig struct {
	Provider  string // firebase, memory
	APIKey    string
	ProjectID string

	// email:password pairs registered with the memory provider at startup
	DevAccounts map[string]string
}

// TokenConfig holds credential store configuration
type TokenConfig struct {
	Backend string // keyring, sqlite
	DBPath  string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := strings.TrimRight(getenv("PIXGRAM_API_URL", "http://localhost:8000"), "/")

	provider := strings.ToLower(getenv("PIXGRAM_IDENTITY", IdentityFirebase))
	if provider != IdentityFirebase && provider != IdentityMemory {
		return nil, fmt.Errorf("unknown identity provider %q (expected %s or %s)", provider, IdentityFirebase, IdentityMemory)
	}

	backend := strings.ToLower(getenv("PIXGRAM_TOKEN_BACKEND", TokenBackendKeyring))
	if backend != TokenBackendKeyring && backend != TokenBackendSQLite {
		return nil, fmt.Errorf("unknown token backend %q (expected %s or %s)", backend, TokenBackendKeyring, TokenBackendSQLite)
	}

	dbPath := os.Getenv("PIXGRAM_TOKEN_DB")
	if dbPath == "" {
		dbPath = defaultDBPath()
	}

	devAccounts, err := parseDevAccounts(os.Getenv("PIXGRAM_DEV_ACCOUNTS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			URL: apiURL,
		},
		Identity: IdentityConfig{
			Provider:    provider,
			APIKey:      os.Getenv("PIXGRAM_FIREBASE_API_KEY"),
			ProjectID:   os.Getenv("PIXGRAM_FIREBASE_PROJECT_ID"),
			DevAccounts: devAccounts,
		},
		Tokens: TokenConfig{
			Backend: backend,
			DBPath:  dbPath,
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "warn"),
			Format: getenv("LOG_FORMAT", "console"),
		},
	}

	if cfg.Identity.Provider == IdentityFirebase && cfg.Identity.APIKey == "" {
		return nil, fmt.Errorf("PIXGRAM_FIREBASE_API_KEY is required for the firebase identity provider")
	}

	return cfg, nil
}

// parseDevAccounts reads "a@x.com:pw1,b@x.com:pw2"
func parseDevAccounts(raw string) (map[string]string, error) {
	accounts := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, password, ok := strings.Cut(pair, ":")
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("invalid PIXGRAM_DEV_ACCOUNTS entry %q (expected email:password)", pair)
		}
		accounts[email] = password
	}
	return accounts, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "pixgram.sqlite"
	}
	return filepath.Join(homeDir, ".config", "pixgram", "tokens.sqlite")
}
