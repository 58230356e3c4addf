package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"seerrbot/internal/config"
	"seerrbot/internal/discord"
	"seerrbot/internal/logging"
	"seerrbot/internal/overseerr"
	"seerrbot/internal/request"
	"seerrbot/internal/store"
	"seerrbot/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seerrbot:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)

	if cfg.Overseerr.APIKey == "" {
		log.Warn().Msg("overseerr api key not configured; requests will fail until it is set")
	}

	st, err := openStore(cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer st.Close()

	client := overseerr.NewClient(overseerr.Config{
		BaseURL:       cfg.Overseerr.BaseURL(),
		APIKey:        cfg.Overseerr.APIKey,
		Timeout:       cfg.Overseerr.Timeout(),
		RequestAsUser: cfg.Overseerr.RequestAsUser,
	})
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Credential and configuration problems halt startup; an
	// unreachable server only warns, so the bot can boot before the
	// backend does.
	if err := client.TestConnection(ctx); err != nil {
		if overseerr.IsAuthError(err) || overseerr.IsConfigError(err) {
			return fmt.Errorf("overseerr connection check: %w", err)
		}
		log.Warn().Err(err).Msg("overseerr not reachable; requests will fail until it is")
	} else {
		log.Info().Str("url", cfg.Overseerr.BaseURL()).Msg("overseerr connection verified")
	}

	wf := request.New(client, st, log)

	bot, err := discord.New(cfg.Discord, wf, st, client, cfg.Overseerr.BaseURL(), log)
	if err != nil {
		return err
	}

	trk := tracker.New(st, client, bot.NotifyAvailability, cfg.Tracker.Interval(), log)

	if err := bot.Start(); err != nil {
		return err
	}

	trk.Start()
	log.Info().
		Dur("interval", cfg.Tracker.Interval()).
		Msg("availability tracker started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	trk.Stop()
	if err := bot.Stop(); err != nil {
		log.Warn().Err(err).Msg("closing discord session")
	}

	return nil
}

// openStore opens the pending-notification database, creating its
// directory if needed. An unopenable file falls back to an in-memory
// store so a corrupt database never keeps the bot down; tracked
// requests then simply do not survive the next restart.
func openStore(path string, log zerolog.Logger) (store.Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	st, err := store.NewSQLiteStore(path)
	if err == nil {
		return st, nil
	}

	log.Error().
		Err(err).
		Str("path", path).
		Msg("opening database failed, falling back to in-memory tracking")

	st, err = store.NewSQLiteStore(":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory store: %w", err)
	}
	return st, nil
}
