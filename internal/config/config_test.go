package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Overseerr.Hostname)
	assert.Equal(t, 5055, cfg.Overseerr.Port)
	assert.False(t, cfg.Overseerr.UseSSL)
	assert.Equal(t, 30*time.Second, cfg.Overseerr.Timeout())
	assert.Equal(t, 10*time.Minute, cfg.Tracker.Interval())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DatabasePath)
}

func TestResolveFileOverridesDefaults(t *testing.T) {
	file := &Config{
		Overseerr: OverseerrConfig{
			Hostname: "media.example.com",
			Port:     8443,
			UseSSL:   true,
			APIKey:   "file-key",
		},
		LogLevel: "debug",
	}

	cfg, err := resolve(Default(), file, nil)
	require.NoError(t, err)

	assert.Equal(t, "media.example.com", cfg.Overseerr.Hostname)
	assert.Equal(t, 8443, cfg.Overseerr.Port)
	assert.Equal(t, "file-key", cfg.Overseerr.APIKey)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Values the file leaves unset keep their defaults.
	assert.Equal(t, 30, cfg.Overseerr.TimeoutSec)
	assert.Equal(t, 10, cfg.Tracker.CheckIntervalMin)
}

func TestResolveEnvOverridesFile(t *testing.T) {
	file := &Config{
		Overseerr: OverseerrConfig{Hostname: "from-file", Port: 5055},
	}
	env := map[string]string{
		"OVERSEERR_HOSTNAME":          "from-env",
		"OVERSEERR_PORT":              "9090",
		"OVERSEERR_USE_SSL":           "true",
		"DISCORD_BOT_TOKEN":           "token-from-env",
		"DISCORD_AUTHORIZED_USERS":    "100, 200,300,",
		"NOTIFICATION_CHECK_INTERVAL": "5",
	}

	cfg, err := resolve(Default(), file, env)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Overseerr.Hostname)
	assert.Equal(t, 9090, cfg.Overseerr.Port)
	assert.True(t, cfg.Overseerr.UseSSL)
	assert.Equal(t, "token-from-env", cfg.Discord.BotToken)
	assert.Equal(t, []string{"100", "200", "300"}, cfg.Discord.AuthorizedUsers)
	assert.Equal(t, 5, cfg.Tracker.CheckIntervalMin)
}

func TestResolveRejectsBadNumbers(t *testing.T) {
	cases := map[string]map[string]string{
		"port":     {"OVERSEERR_PORT": "not-a-port"},
		"ssl":      {"OVERSEERR_USE_SSL": "maybe"},
		"interval": {"NOTIFICATION_CHECK_INTERVAL": "soon"},
		"user id":  {"OVERSEERR_USER_ID": "alice"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := resolve(Default(), nil, env)
			assert.Error(t, err)
		})
	}
}

func TestReadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := readFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestReadFileParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
discord:
  bot_token: yaml-token
  guild_id: "123456"
  authorized_users:
    - "100"
    - "200"
overseerr:
  hostname: overseerr.local
  port: 5055
  api_key: yaml-key
tracker:
  check_interval_min: 15
log_level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := readFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "yaml-token", cfg.Discord.BotToken)
	assert.Equal(t, "123456", cfg.Discord.GuildID)
	assert.Equal(t, []string{"100", "200"}, cfg.Discord.AuthorizedUsers)
	assert.Equal(t, "overseerr.local", cfg.Overseerr.Hostname)
	assert.Equal(t, "yaml-key", cfg.Overseerr.APIKey)
	assert.Equal(t, 15, cfg.Tracker.CheckIntervalMin)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestReadFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discord: [unclosed"), 0o600))

	_, err := readFile(path)
	assert.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	plain := OverseerrConfig{Hostname: "localhost", Port: 5055}
	assert.Equal(t, "http://localhost:5055/api/v1", plain.BaseURL())

	secure := OverseerrConfig{Hostname: "media.example.com", Port: 443, UseSSL: true}
	assert.Equal(t, "https://media.example.com:443/api/v1", secure.BaseURL())
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Discord.BotToken = "token"
	assert.NoError(t, valid.Validate())

	noToken := Default()
	assert.ErrorContains(t, noToken.Validate(), "bot token")

	badPort := valid
	badPort.Overseerr.Port = 0
	assert.ErrorContains(t, badPort.Validate(), "port")

	badInterval := valid
	badInterval.Tracker.CheckIntervalMin = 0
	assert.ErrorContains(t, badInterval.Validate(), "interval")
}
