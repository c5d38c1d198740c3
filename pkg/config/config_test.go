package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"QIITA_USERNAME", "QIITA_TOKEN", "QIITA_BASE_URL", "QIITA_WORKSPACE",
		"QIITA_DEFAULT_PRIVATE", "BRIDGE_ADDR", "BRIDGE_SECRET",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettingsFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"sublime", "Qiita.sublime-settings", `{"username": "alice", "token": "secret"}`},
		{"yaml", "qiita.yaml", "username: alice\ntoken: secret\n"},
		{"toml", "qiita.toml", "username = \"alice\"\ntoken = \"secret\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Username != "alice" || cfg.Token != "secret" {
				t.Errorf("got user=%q token=%q", cfg.Username, cfg.Token)
			}
			if cfg.BaseURL != DefaultBaseURL {
				t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
			}
			if !cfg.Private() {
				t.Error("posts should default to private")
			}
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "qiita.yaml", "username: alice\ntoken: secret\ndefault_private: true\n")
	t.Setenv("QIITA_TOKEN", "from-env")
	t.Setenv("QIITA_BASE_URL", "http://localhost:9000/api/v1/")
	t.Setenv("QIITA_DEFAULT_PRIVATE", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "from-env" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.BaseURL != "http://localhost:9000/api/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Private() {
		t.Error("QIITA_DEFAULT_PRIVATE=false should make posts public")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "qiita.yaml", "username: alice\n"))
	if err == nil || !strings.Contains(err.Error(), "Token") {
		t.Fatalf("expected token validation error, got %v", err)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeFile(t, "qiita.ini", "username=alice")); err == nil {
		t.Fatal("expected error for .ini settings")
	}
}

func TestTokenSource(t *testing.T) {
	cfg := &Config{Token: "secret"}
	tok, err := cfg.TokenSource().Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "secret" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
}
