package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sample = `
[tgbot]
token = file-token
endpoint = http://localhost:8081/bot%s/%s

[proxy-socks5]
server = 127.0.0.1:1080
user = alice
pass = secret

[database]
path = /var/lib/bot/finance.db

[scheduler]
interval = 30s
max-backoff = 10m

[clock]
timezone = UTC

[callback]
secret = file-secret
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, env(nil), new(bytes.Buffer))
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "finance.db", cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, sample)

	cfg, err := Load([]string{"-config", path}, env(nil), new(bytes.Buffer))
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, "http://localhost:8081/bot%s/%s", cfg.APIEndpoint)
	assert.Equal(t, Proxy{Server: "127.0.0.1:1080", User: "alice", Pass: "secret"}, cfg.Proxy)
	assert.Equal(t, "/var/lib/bot/finance.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 10*time.Minute, cfg.MaxBackoff)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, "file-secret", cfg.CallbackSecret)
	assert.NoError(t, cfg.Validate())
}

func TestPrecedence(t *testing.T) {
	path := writeFile(t, sample)
	vars := map[string]string{
		"BOT_TOKEN":         "env-token",
		"DB_PATH":           "env.db",
		"REMINDER_INTERVAL": "45s",
		"DATABASE_URL":      "postgres://env",
	}

	cfg, err := Load([]string{"-config", path, "-db", "flag.db", "-interval", "5s", "-debug"}, env(vars), new(bytes.Buffer))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Token, "env beats file")
	assert.Equal(t, "flag.db", cfg.DBPath, "flag beats env")
	assert.Equal(t, 5*time.Second, cfg.Interval, "flag beats env")
	assert.Equal(t, 10*time.Minute, cfg.MaxBackoff, "file value survives")
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.True(t, cfg.Debug)
}

func TestEnvOnly(t *testing.T) {
	vars := map[string]string{
		"BOT_TOKEN":            "t",
		"BOT_API_ENDPOINT":     "http://api.local/bot%s/%s",
		"SOCKS5_PROXY":         "proxy:1080",
		"SOCKS5_USER":          "u",
		"SOCKS5_PASS":          "p",
		"REMINDER_MAX_BACKOFF": "1h",
		"TZ":                   "UTC",
		"CALLBACK_SECRET":      "s",
	}

	cfg, err := Load(nil, env(vars), new(bytes.Buffer))
	require.NoError(t, err)

	assert.Equal(t, Proxy{Server: "proxy:1080", User: "u", Pass: "p"}, cfg.Proxy)
	assert.Equal(t, "http://api.local/bot%s/%s", cfg.APIEndpoint)
	assert.Equal(t, time.Hour, cfg.MaxBackoff)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "s", cfg.CallbackSecret)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		vars map[string]string
		want string
	}{
		{"bad interval env", nil, map[string]string{"REMINDER_INTERVAL": "soon"}, "REMINDER_INTERVAL"},
		{"bad backoff env", nil, map[string]string{"REMINDER_MAX_BACKOFF": "10"}, "REMINDER_MAX_BACKOFF"},
		{"bad timezone", nil, map[string]string{"TZ": "Mars/Olympus_Mons"}, "TZ"},
		{"zero interval", []string{"-interval", "0s"}, nil, "interval must be positive"},
		{"missing file", []string{"-config", "/nonexistent/bot.cfg"}, nil, "read config"},
		{"unknown flag", []string{"-verbose"}, nil, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, env(tt.vars), new(bytes.Buffer))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBadFileValues(t *testing.T) {
	path := writeFile(t, "[scheduler]\ninterval = often\n")
	_, err := Load([]string{"-config", path}, env(nil), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.interval")

	path = writeFile(t, "[nosuchsection]\nkey = v\n")
	_, err = Load([]string{"-config", path}, env(nil), new(bytes.Buffer))
	assert.Error(t, err)
}

func TestHelp(t *testing.T) {
	out := new(bytes.Buffer)
	_, err := Load([]string{"-h"}, env(nil), out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "-database-url")
}
