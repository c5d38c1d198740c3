package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "https://qiita.com/api/v1"
	DefaultBridgeAddr = "127.0.0.1:8765"
	DefaultWorkspace  = "."
)

// Config is loaded once at startup and shared read-only by every command.
type Config struct {
	Username       string `json:"username" yaml:"username" toml:"username" validate:"required"`
	Token          string `json:"token" yaml:"token" toml:"token" validate:"required"`
	BaseURL        string `json:"base_url" yaml:"base_url" toml:"base_url" validate:"required,url"`
	Workspace      string `json:"workspace" yaml:"workspace" toml:"workspace" validate:"required"`
	BridgeAddr     string `json:"bridge_addr" yaml:"bridge_addr" toml:"bridge_addr" validate:"required,hostname_port"`
	BridgeSecret   string `json:"bridge_secret" yaml:"bridge_secret" toml:"bridge_secret"`
	DefaultPrivate *bool  `json:"default_private" yaml:"default_private" toml:"default_private"`
}

var validate = validator.New()

// Load builds the configuration from defaults, the optional settings file,
// a .env file and the environment, in that order.
func Load(settingsPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it.")
	}

	cfg := &Config{
		BaseURL:    DefaultBaseURL,
		BridgeAddr: DefaultBridgeAddr,
		Workspace:  DefaultWorkspace,
	}

	if settingsPath != "" {
		if err := readSettings(settingsPath, cfg); err != nil {
			return nil, err
		}
	}

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg.Username = getEnv("QIITA_USERNAME", cfg.Username)
	cfg.Token = getEnv("QIITA_TOKEN", cfg.Token)
	cfg.BaseURL = strings.TrimRight(getEnv("QIITA_BASE_URL", cfg.BaseURL), "/")
	cfg.Workspace = getEnv("QIITA_WORKSPACE", cfg.Workspace)
	cfg.BridgeAddr = getEnv("BRIDGE_ADDR", cfg.BridgeAddr)
	cfg.BridgeSecret = getEnv("BRIDGE_SECRET", cfg.BridgeSecret)

	if p := os.Getenv("QIITA_DEFAULT_PRIVATE"); p != "" {
		val, err := strconv.ParseBool(p)
		if err != nil {
			return nil, fmt.Errorf("QIITA_DEFAULT_PRIVATE: %w", err)
		}
		cfg.DefaultPrivate = &val
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readSettings(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, cfg)
	case ".toml":
		err = toml.Unmarshal(content, cfg)
	case ".json", ".sublime-settings":
		err = json.Unmarshal(content, cfg)
	default:
		return fmt.Errorf("unsupported settings format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Private is the visibility used by post-new-item when the caller gives none.
func (c *Config) Private() bool {
	if c.DefaultPrivate == nil {
		return true
	}
	return *c.DefaultPrivate
}

func (c *Config) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token})
}
