package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/pixgram-dev/pixgram/internal/cli/config"
)

// TestInitCommand_NewConfig tests creating a brand new config file
func TestInitCommand_NewConfig(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	err := runInitWithOptions([]string{"https://pixgram.example.com/"}, &initOptions{skipBrowser: true})
	if err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	configPath := filepath.Join(tempDir, "pixgram.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("pixgram.yaml was not created")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}

	if len(cfg.Servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(cfg.Servers))
	}

	if cfg.Servers[0].URL != "https://pixgram.example.com" {
		t.Errorf("expected URL 'https://pixgram.example.com', got '%s'", cfg.Servers[0].URL)
	}

	if cfg.Servers[0].Alias != "server-1" {
		t.Errorf("expected alias 'server-1', got '%s'", cfg.Servers[0].Alias)
	}
}

// TestInitCommand_MultipleServers tests adding multiple servers and alias naming
func TestInitCommand_MultipleServers(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	servers := []struct {
		url           string
		expectedAlias string
	}{
		{"http://10.0.0.1:8000", "server-1"},
		{"http://10.0.0.2:8000", "server-2"},
		{"pixgram.example.com", "server-3"},
	}

	for i, srv := range servers {
		if err := runInitWithOptions([]string{srv.url}, &initOptions{skipBrowser: true}); err != nil {
			t.Fatalf("init command failed for server %d: %v", i+1, err)
		}
	}

	cfg, err := config.Load(filepath.Join(tempDir, "pixgram.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.Servers) != 3 {
		t.Fatalf("expected 3 servers, got %d", len(cfg.Servers))
	}

	for i, expected := range servers {
		if cfg.Servers[i].Alias != expected.expectedAlias {
			t.Errorf("server %d: expected alias '%s', got '%s'", i, expected.expectedAlias, cfg.Servers[i].Alias)
		}
	}

	if cfg.Servers[2].URL != "https://pixgram.example.com" {
		t.Errorf("bare host should default to https, got '%s'", cfg.Servers[2].URL)
	}
}

// TestInitCommand_DuplicateServer tests that re-adding a server is a no-op
func TestInitCommand_DuplicateServer(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	for i := 0; i < 2; i++ {
		if err := runInitWithOptions([]string{"http://10.0.0.1:8000"}, &initOptions{skipBrowser: true}); err != nil {
			t.Fatalf("init command failed: %v", err)
		}
	}

	cfg, err := config.Load(filepath.Join(tempDir, "pixgram.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.Servers) != 1 {
		t.Errorf("expected 1 server (no duplicate), got %d", len(cfg.Servers))
	}
}

// TestInitCommand_CustomAlias tests the --alias flag and alias collisions
func TestInitCommand_CustomAlias(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	if err := runInitWithOptions([]string{"https://pixgram.example.com"}, &initOptions{alias: "production", skipBrowser: true}); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	err := runInitWithOptions([]string{"https://staging.example.com"}, &initOptions{alias: "production", skipBrowser: true})
	if err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("expected alias collision error, got %v", err)
	}
}

// TestInitCommand_InvalidURL tests that unusable URLs are rejected before writing
func TestInitCommand_InvalidURL(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	if err := runInitWithOptions([]string{"ftp://example.com"}, &initOptions{skipBrowser: true}); err == nil {
		t.Fatal("expected error for ftp URL")
	}

	if _, err := os.Stat(filepath.Join(tempDir, "pixgram.yaml")); !os.IsNotExist(err) {
		t.Error("pixgram.yaml should not be created for an invalid URL")
	}
}

// TestInitCommand_MissingArgument tests that init requires a URL
func TestInitCommand_MissingArgument(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := NewInitCmd()
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when no URL provided, but got nil")
	}
}

// TestInitCommand_OpensSignupPage tests the browser hand-off
func TestInitCommand_OpensSignupPage(t *testing.T) {
	chdir(t, t.TempDir())

	var opened string
	openBrowser = func(url string) error {
		opened = url
		return nil
	}
	t.Cleanup(func() { openBrowser = defaultOpenBrowser })

	if err := runInitWithOptions([]string{"https://pixgram.example.com"}, &initOptions{}); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	if opened != "https://pixgram.example.com/signup" {
		t.Errorf("expected signup page to be opened, got '%s'", opened)
	}
}

// TestInitCommand_ConfigFileFormat tests that the config file is valid YAML
func TestInitCommand_ConfigFileFormat(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	if err := runInitWithOptions([]string{"http://localhost:8000"}, &initOptions{skipBrowser: true}); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tempDir, "pixgram.yaml"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var parsed map[string][]map[string]string
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("config file is not valid YAML: %v", err)
	}

	if parsed["servers"][0]["url"] != "http://localhost:8000" {
		t.Errorf("unexpected file contents:\n%s", data)
	}
}
