package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/config"
	"github.com/robalobadob/wordduel/internal/httpserver"
	"github.com/robalobadob/wordduel/internal/store"
	"github.com/robalobadob/wordduel/internal/validate"
	"github.com/robalobadob/wordduel/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx := context.Background()
	slot, closer, err := openSlot(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}
	if closer != nil {
		defer closer.Close()
	}

	var list *words.List
	if validate.NeedsWords(cfg.GuessRule) {
		if list, err = words.Load(cfg.WordsFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load word list")
		}
	}
	rule, err := validate.Parse(cfg.GuessRule, list)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid guess rule")
	}

	srv := httpserver.New(httpserver.Options{
		Slot:         slot,
		Rule:         rule,
		Words:        list,
		StateKey:     cfg.StateKey,
		JWTSecret:    cfg.JWTSecret,
		CookieName:   cfg.CookieName,
		ClientOrigin: cfg.ClientOrigin,
		Secure:       cfg.Production,
	})
	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.StoreBackend).
		Str("guess_rule", cfg.GuessRule).
		Msg("starting wordduel")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// openSlot builds the configured record slot. closer is nil for backends with nothing to release.
func openSlot(ctx context.Context, cfg config.Config) (store.Slot, io.Closer, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemorySlot(), nil, nil
	case "file":
		s, err := store.NewFileSlot(cfg.StoreFile)
		return s, nil, err
	case "postgres":
		s, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		s, err := store.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}
