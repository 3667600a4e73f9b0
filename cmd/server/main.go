// Package main is the entry point for the Stockfolio portfolio-tracking
// service. It wires configuration, logging, the two SQLite databases (users,
// sessions), the Alpha Vantage quote client, the per-user ledger registry,
// and the HTTP server, then runs until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"stockfolio/internal/clients/alphavantage"
	"stockfolio/internal/config"
	"stockfolio/internal/database"
	"stockfolio/internal/modules/ledger"
	"stockfolio/internal/modules/sessions"
	"stockfolio/internal/modules/users"
	"stockfolio/internal/reliability"
	"stockfolio/internal/server"
	"stockfolio/pkg/logger"
)

func main() {
	// Load configuration first to get log level. This fails fast when the
	// Alpha Vantage API key is missing.
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Stockfolio")

	// Databases
	usersDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "users.db"),
		Profile: database.ProfileStandard,
		Name:    "users",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open users database")
	}
	defer usersDB.Close()

	sessionsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "sessions.db"),
		Profile: database.ProfileStandard,
		Name:    "sessions",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open sessions database")
	}
	defer sessionsDB.Close()

	for _, db := range []*database.DB{usersDB, sessionsDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Repositories and clients
	usersRepo := users.NewRepository(usersDB.Conn(), log)
	sessionsRepo := sessions.NewRepository(sessionsDB.Conn(), log)
	quoteClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)
	registry := ledger.NewRegistry(server.NewQuoteAdapter(quoteClient), log)

	// HTTP server
	srv := server.New(server.Config{
		Log:        log,
		UsersDB:    usersDB,
		SessionsDB: sessionsDB,
		Users:      usersRepo,
		Sessions:   sessionsRepo,
		Registry:   registry,
		Quotes:     quoteClient,
		Config:     cfg,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Nightly database maintenance at 02:00
	maintenance := reliability.NewMaintenanceJob(map[string]*database.DB{
		"users":    usersDB,
		"sessions": sessionsDB,
	}, log)

	scheduler := cron.New()
	if _, err := scheduler.AddJob("0 2 * * *", maintenance); err != nil {
		log.Error().Err(err).Msg("Failed to schedule maintenance job")
	} else {
		scheduler.Start()
		log.Info().Msg("Maintenance scheduler started")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
