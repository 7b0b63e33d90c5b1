// Package main provides the game server binary: it wires storage, content
// tables, and the game service, then serves an interactive console until
// signalled.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/avheur/dicedelve/internal/config"
	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/item"
	"github.com/avheur/dicedelve/internal/game/session"
	"github.com/avheur/dicedelve/internal/gameserver"
	"github.com/avheur/dicedelve/internal/observability"
	"github.com/avheur/dicedelve/internal/server"
	"github.com/avheur/dicedelve/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Content tables: built-in defaults unless the config points at YAML.
	names := item.DefaultNames()
	if cfg.Game.NamesPath != "" {
		if names, err = item.LoadNames(cfg.Game.NamesPath); err != nil {
			logger.Fatal("loading item names", zap.String("path", cfg.Game.NamesPath), zap.Error(err))
		}
		logger.Info("item names loaded", zap.String("path", cfg.Game.NamesPath))
	}
	bestiary := battle.DefaultBestiary()
	if cfg.Game.BestiaryPath != "" {
		if bestiary, err = battle.LoadBestiary(cfg.Game.BestiaryPath); err != nil {
			logger.Fatal("loading bestiary", zap.String("path", cfg.Game.BestiaryPath), zap.Error(err))
		}
		logger.Info("bestiary loaded", zap.String("path", cfg.Game.BestiaryPath))
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	store := postgres.NewStore(pool)
	sessions := session.NewManager()
	src := dice.NewCryptoSource()

	svc := gameserver.NewService(store, sessions, src, names, bestiary, cfg.Game.StartingD4, logger)

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("console", newConsole(ctx, svc, store))

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("starting_d4", cfg.Game.StartingD4),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
