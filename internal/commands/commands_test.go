package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmeicr/hmeicr/internal/apitest"
	"github.com/hmeicr/hmeicr/internal/auditlog"
	"github.com/hmeicr/hmeicr/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvTheme, "")
	t.Setenv(config.EnvLogLevel, "")
}

func runHmeicr(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInit_WritesConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "hmeicr", "config.yaml")

	out, err := runHmeicr(t, "", "init", "--config", path, "--base-url", "https://receipts.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote config to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://receipts.example.com", cfg.Server.BaseURL)
	assert.Equal(t, config.ThemeLight, cfg.UI.Theme)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runHmeicr(t, "", "init", "--config", path)
	require.NoError(t, err)

	_, err = runHmeicr(t, "", "init", "--config", path, "--base-url", "http://other:8080")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runHmeicr(t, "", "init", "--config", path, "--base-url", "http://other:8080", "--force")
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://other:8080", cfg.Server.BaseURL)
}

func TestInit_RejectsBadURL(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runHmeicr(t, "", "init", "--config", path, "--base-url", "ftp://example.com")
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestTheme(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := runHmeicr(t, "", "init", "--config", path)
	require.NoError(t, err)

	out, err := runHmeicr(t, "", "theme", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = runHmeicr(t, "", "theme", "dark", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = runHmeicr(t, "", "theme", "toggle", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, err = runHmeicr(t, "", "theme", "solarized", "--config", path)
	assert.Error(t, err)
}

func TestThemeDoesNotPersistOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := runHmeicr(t, "", "init", "--config", path)
	require.NoError(t, err)

	_, err = runHmeicr(t, "", "theme", "dark", "--config", path, "--base-url", "https://temporary.example.com")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ThemeDark, cfg.UI.Theme)
	assert.Equal(t, config.Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestHistory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	out, err := runHmeicr(t, "", "history", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "No events recorded.\n", out)

	ts := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	require.NoError(t, auditlog.Append(filepath.Join(dir, auditlog.FileName), []auditlog.Entry{
		{Timestamp: ts, Event: auditlog.EventLogin, Email: "user@example.com", Status: auditlog.StatusFailure},
		{Timestamp: ts, Event: auditlog.EventLogin, Email: "user@example.com", Status: auditlog.StatusSuccess},
		{Timestamp: ts, Event: auditlog.EventReceiptDelete, Email: "user@example.com", Status: auditlog.StatusSuccess, Details: "id=r1"},
	}))

	out, err = runHmeicr(t, "", "history", "--config", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "login_attempt")
	assert.Contains(t, lines[0], "failure")
	assert.Contains(t, lines[2], "id=r1")

	out, err = runHmeicr(t, "", "history", "-n", "1", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "receipt_delete")
}

func TestShell(t *testing.T) {
	clearEnv(t)
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("user@example.com", "hunter22")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	script := strings.Join([]string{
		"login", "user@example.com", "hunter22",
		"add", "Coffee", "3.50", "USD", "2024-03-05",
		"theme",
		"logout",
		"quit",
	}, "\n") + "\n"

	out, err := runHmeicr(t, script, "shell", "--config", path, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as user@example.com")
	assert.Contains(t, out, "- Coffee 3.50 USD 2024-03-05")
	assert.Contains(t, out, "Theme: dark")
	assert.NotContains(t, out, "hunter22")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ThemeDark, cfg.UI.Theme)

	entries, err := auditlog.Read(filepath.Join(dir, auditlog.FileName))
	require.NoError(t, err)
	var events []string
	for _, e := range entries {
		events = append(events, e.Event)
	}
	assert.Equal(t, []string{auditlog.EventLogin, auditlog.EventReceiptCreate, auditlog.EventLogout}, events)
}

func TestShell_BadLogLevel(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := runHmeicr(t, "", "shell", "--config", path, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestVersion(t *testing.T) {
	out, err := runHmeicr(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "hmeicr version dev")
}
