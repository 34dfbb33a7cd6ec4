package commands

import (
	"fmt"
	"path/filepath"

	"github.com/hmeicr/hmeicr/internal/auditlog"
	"github.com/hmeicr/hmeicr/internal/config"
)

// envFile is read from the working directory when present.
const envFile = ".env"

// resolveConfigPath returns --config or the default location.
func (f *globalFlags) resolveConfigPath() (string, error) {
	if f.configPath != "" {
		return filepath.Abs(f.configPath)
	}
	return config.DefaultPath()
}

// auditPath places the audit log next to the config file.
func auditPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), auditlog.FileName)
}

// loadConfig builds the effective configuration: file (or defaults), then
// environment, then flags.
func (f *globalFlags) loadConfig() (*config.Config, string, error) {
	path, err := f.resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, "", err
	}
	if f.baseURL != "" {
		cfg.Server.BaseURL = f.baseURL
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, path, nil
}

// themeFile persists the theme preference by rewriting only ui.theme in the
// config file, so environment and flag overrides never leak into it.
type themeFile struct {
	path    string
	current string
}

func (t *themeFile) Theme() string { return t.current }

func (t *themeFile) ToggleTheme() (string, error) {
	next := config.ThemeDark
	if t.current == config.ThemeDark {
		next = config.ThemeLight
	}
	if err := t.set(next); err != nil {
		return t.current, err
	}
	return t.current, nil
}

func (t *themeFile) set(theme string) error {
	cfg, err := config.LoadOrDefault(t.path)
	if err != nil {
		return err
	}
	cfg.UI.Theme = theme
	if err := config.Save(t.path, cfg); err != nil {
		return err
	}
	t.current = theme
	return nil
}
