package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"seerrbot/internal/credential"
)

// DiscordConfig holds the chat platform settings.
type DiscordConfig struct {
	// BotToken authenticates the bot's gateway session. Required.
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`

	// ClientID is the application ID that slash commands are
	// registered under. Empty falls back to the session's own user.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`

	// GuildID scopes command registration to a single guild when set.
	// Empty registers the commands globally.
	GuildID string `mapstructure:"guild_id" yaml:"guild_id"`

	// AuthorizedUsers limits who may use the bot, by user ID. Empty
	// allows everyone.
	AuthorizedUsers []string `mapstructure:"authorized_users" yaml:"authorized_users"`
}

// OverseerrConfig holds the media server connection settings.
type OverseerrConfig struct {
	// Hostname of the Overseerr server, without a scheme.
	Hostname string `mapstructure:"hostname" yaml:"hostname"`

	// Port the server listens on.
	Port int `mapstructure:"port" yaml:"port"`

	// UseSSL switches the base URL to https.
	UseSSL bool `mapstructure:"use_ssl" yaml:"use_ssl"`

	// APIKey authenticates every API call.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// RequestAsUser optionally attributes submitted requests to this
	// Overseerr user ID. Zero submits as the API key's own user.
	RequestAsUser int `mapstructure:"request_as_user" yaml:"request_as_user"`

	// TimeoutSec bounds a single API call, in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// BaseURL returns the API root the client should call.
func (c OverseerrConfig) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d/api/v1", scheme, c.Hostname, c.Port)
}

// Timeout returns TimeoutSec as a duration.
func (c OverseerrConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// TrackerConfig holds the availability polling settings.
type TrackerConfig struct {
	// CheckIntervalMin is how often, in minutes, pending requests are
	// checked for availability.
	CheckIntervalMin int `mapstructure:"check_interval_min" yaml:"check_interval_min"`
}

// Interval returns CheckIntervalMin as a duration.
func (c TrackerConfig) Interval() time.Duration {
	return time.Duration(c.CheckIntervalMin) * time.Minute
}

// Config is the top-level application configuration.
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord" yaml:"discord"`
	Overseerr OverseerrConfig `mapstructure:"overseerr" yaml:"overseerr"`
	Tracker   TrackerConfig   `mapstructure:"tracker" yaml:"tracker"`

	// LogLevel is the minimum level emitted (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// DatabasePath is where the pending-notification database lives.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/seerrbot/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "seerrbot", "config.yaml")
}

// DefaultDatabasePath returns the default location of the
// pending-notification database.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "pending.db")
	}
	return filepath.Join(home, ".local", "share", "seerrbot", "pending.db")
}

// Default returns the compiled-in base configuration.
func Default() Config {
	return Config{
		Overseerr: OverseerrConfig{
			Hostname:   "localhost",
			Port:       5055,
			TimeoutSec: 30,
		},
		Tracker: TrackerConfig{
			CheckIntervalMin: 10,
		},
		LogLevel:     "info",
		DatabasePath: DefaultDatabasePath(),
	}
}

// envVars is the set of environment variables consulted, named after
// the services they configure.
var envVars = []string{
	"DISCORD_BOT_TOKEN",
	"DISCORD_CLIENT_ID",
	"DISCORD_GUILD_ID",
	"DISCORD_AUTHORIZED_USERS",
	"OVERSEERR_HOSTNAME",
	"OVERSEERR_PORT",
	"OVERSEERR_USE_SSL",
	"OVERSEERR_API_KEY",
	"OVERSEERR_USER_ID",
	"NOTIFICATION_CHECK_INTERVAL",
	"LOG_LEVEL",
}

// Load resolves the effective configuration: compiled defaults, then
// the YAML file at path, then environment variables, in rising
// priority. Secrets still missing afterwards are looked up in the OS
// keyring.
func Load(path string) (*Config, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := resolve(Default(), file, envValues())
	if err != nil {
		return nil, err
	}

	// The keyring backs secrets only; file and environment win.
	if cfg.Discord.BotToken == "" {
		if token, err := credential.Get(credential.KeyBotToken); err == nil {
			cfg.Discord.BotToken = token
		}
	}
	if cfg.Overseerr.APIKey == "" {
		if key, err := credential.Get(credential.KeyAPIKey); err == nil {
			cfg.Overseerr.APIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readFile loads the YAML configuration file at path using Viper.
// A missing file is not an error; it simply contributes nothing.
func readFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return nil, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return &cfg, nil
}

// resolve layers the configuration sources. Later layers win; values a
// layer leaves unset keep what the layer below decided.
func resolve(base Config, file *Config, env map[string]string) (Config, error) {
	cfg := base

	if file != nil {
		mergeConfig(&cfg, file)
	}

	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// mergeConfig overlays src onto dst, field by field. Zero values in
// src are treated as unset and leave dst alone.
func mergeConfig(dst *Config, src *Config) {
	if src.Discord.BotToken != "" {
		dst.Discord.BotToken = src.Discord.BotToken
	}
	if src.Discord.ClientID != "" {
		dst.Discord.ClientID = src.Discord.ClientID
	}
	if src.Discord.GuildID != "" {
		dst.Discord.GuildID = src.Discord.GuildID
	}
	if len(src.Discord.AuthorizedUsers) > 0 {
		dst.Discord.AuthorizedUsers = src.Discord.AuthorizedUsers
	}
	if src.Overseerr.Hostname != "" {
		dst.Overseerr.Hostname = src.Overseerr.Hostname
	}
	if src.Overseerr.Port != 0 {
		dst.Overseerr.Port = src.Overseerr.Port
	}
	if src.Overseerr.UseSSL {
		dst.Overseerr.UseSSL = true
	}
	if src.Overseerr.APIKey != "" {
		dst.Overseerr.APIKey = src.Overseerr.APIKey
	}
	if src.Overseerr.RequestAsUser != 0 {
		dst.Overseerr.RequestAsUser = src.Overseerr.RequestAsUser
	}
	if src.Overseerr.TimeoutSec != 0 {
		dst.Overseerr.TimeoutSec = src.Overseerr.TimeoutSec
	}
	if src.Tracker.CheckIntervalMin != 0 {
		dst.Tracker.CheckIntervalMin = src.Tracker.CheckIntervalMin
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DatabasePath != "" {
		dst.DatabasePath = src.DatabasePath
	}
}

// applyEnv overlays environment variables onto cfg. Numeric and
// boolean values that do not parse are rejected rather than silently
// ignored.
func applyEnv(cfg *Config, env map[string]string) error {
	if v, ok := env["DISCORD_BOT_TOKEN"]; ok {
		cfg.Discord.BotToken = v
	}
	if v, ok := env["DISCORD_CLIENT_ID"]; ok {
		cfg.Discord.ClientID = v
	}
	if v, ok := env["DISCORD_GUILD_ID"]; ok {
		cfg.Discord.GuildID = v
	}
	if v, ok := env["DISCORD_AUTHORIZED_USERS"]; ok {
		cfg.Discord.AuthorizedUsers = splitCSV(v)
	}
	if v, ok := env["OVERSEERR_HOSTNAME"]; ok {
		cfg.Overseerr.Hostname = v
	}
	if v, ok := env["OVERSEERR_PORT"]; ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing OVERSEERR_PORT %q: %w", v, err)
		}
		cfg.Overseerr.Port = port
	}
	if v, ok := env["OVERSEERR_USE_SSL"]; ok {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing OVERSEERR_USE_SSL %q: %w", v, err)
		}
		cfg.Overseerr.UseSSL = useSSL
	}
	if v, ok := env["OVERSEERR_API_KEY"]; ok {
		cfg.Overseerr.APIKey = v
	}
	if v, ok := env["OVERSEERR_USER_ID"]; ok {
		userID, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing OVERSEERR_USER_ID %q: %w", v, err)
		}
		cfg.Overseerr.RequestAsUser = userID
	}
	if v, ok := env["NOTIFICATION_CHECK_INTERVAL"]; ok {
		interval, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing NOTIFICATION_CHECK_INTERVAL %q: %w", v, err)
		}
		cfg.Tracker.CheckIntervalMin = interval
	}
	if v, ok := env["LOG_LEVEL"]; ok {
		cfg.LogLevel = v
	}

	return nil
}

// envValues collects the consulted environment variables that are set.
func envValues() map[string]string {
	env := make(map[string]string)
	for _, name := range envVars {
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}
	return env
}

// splitCSV splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate reports configuration the process cannot start with. A
// missing API key passes here; the startup connection check surfaces
// it where the operator can see what happens.
func (c Config) Validate() error {
	if c.Discord.BotToken == "" {
		return fmt.Errorf("discord bot token is required (DISCORD_BOT_TOKEN or the config file)")
	}
	if c.Overseerr.Port < 1 || c.Overseerr.Port > 65535 {
		return fmt.Errorf("overseerr port %d out of range", c.Overseerr.Port)
	}
	if c.Tracker.CheckIntervalMin < 1 {
		return fmt.Errorf("notification check interval must be at least 1 minute, got %d", c.Tracker.CheckIntervalMin)
	}
	return nil
}
