package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hmeicr/hmeicr/internal/logging"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Environment variables that override the file.
const (
	EnvBaseURL  = "HMEICR_BASE_URL"
	EnvTheme    = "HMEICR_THEME"
	EnvLogLevel = "HMEICR_LOG_LEVEL"
)

// DirName is the directory under the user config dir holding hmeicr state.
const DirName = "hmeicr"

// FileName is the config file name inside DirName.
const FileName = "config.yaml"

// Config represents the top-level config.yaml configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	UI     UIConfig     `yaml:"ui"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig locates the receipts backend.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// UIConfig holds display preferences. They outlive any session.
type UIConfig struct {
	Theme string `yaml:"theme"` // "light" or "dark"
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Dir returns the hmeicr directory under the user config dir.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, DirName), nil
}

// DefaultPath returns the config file location used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads a config.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file, creating its directory if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config pointing at a local development backend.
func Default() *Config {
	return &Config{
		Server: ServerConfig{BaseURL: "http://localhost:5000"},
		UI:     UIConfig{Theme: ThemeLight},
		Log:    LogConfig{Level: "warn"},
	}
}

// ApplyEnv overrides cfg from the process environment and, for variables not
// set there, from envFile. A missing envFile is not an error.
func ApplyEnv(cfg *Config, envFile string) error {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvBaseURL); ok {
		cfg.Server.BaseURL = v
	}
	if v, ok := lookup(EnvTheme); ok {
		cfg.UI.Theme = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports every problem with cfg at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server.BaseURL)
	switch {
	case c.Server.BaseURL == "":
		errs = append(errs, errors.New("server.base_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("server.base_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("server.base_url %q: scheme must be http or https", c.Server.BaseURL))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("server.base_url %q: missing host", c.Server.BaseURL))
	}

	if c.UI.Theme != ThemeLight && c.UI.Theme != ThemeDark {
		errs = append(errs, fmt.Errorf("ui.theme %q: must be %q or %q", c.UI.Theme, ThemeLight, ThemeDark))
	}
	if !slices.Contains(logging.Levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q: must be one of %v", c.Log.Level, logging.Levels))
	}

	return errors.Join(errs...)
}

// ToggleTheme flips between light and dark and returns the new theme.
func (c *Config) ToggleTheme() string {
	if c.UI.Theme == ThemeDark {
		c.UI.Theme = ThemeLight
	} else {
		c.UI.Theme = ThemeDark
	}
	return c.UI.Theme
}
