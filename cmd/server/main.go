// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/carrelhq/carrel/internal/api/analyticsapi"
	"github.com/carrelhq/carrel/internal/api/auth"
	"github.com/carrelhq/carrel/internal/api/bookings"
	"github.com/carrelhq/carrel/internal/api/exports"
	"github.com/carrelhq/carrel/internal/api/profiles"
	"github.com/carrelhq/carrel/internal/api/rooms"
	"github.com/carrelhq/carrel/internal/api/tours"
	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/db"
	"github.com/carrelhq/carrel/internal/email"
	"github.com/carrelhq/carrel/internal/scheduler"
	"github.com/carrelhq/carrel/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the application config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var emailSender email.EmailSender
	if cfg.Email.AccessKeyID != "" {
		sesClient, err := email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize email client")
		}
		emailSender = sesClient
	} else {
		log.Warn().Msg("Email notifications disabled: no SES credentials configured")
	}

	objectStore, err := storage.New(cfg.ObjectStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object store")
	}
	if objectStore == nil {
		log.Warn().Msg("File uploads disabled: no object store configured")
	}

	auth.InitHandlers(database.Queries, cfg)
	rooms.InitHandlers(database.Queries)
	tours.InitHandlers(database.Queries)
	bookings.InitHandlers(database, emailSender, objectStore)
	profiles.InitHandlers(database.Queries, objectStore)
	analyticsapi.InitHandlers(database.Queries)
	exports.InitHandlers(database.Queries)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if cfg.Features.EnableReminders {
		if err := scheduler.RegisterReminderJob(database, emailSender); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reminder job")
		}
	}
	if cfg.Features.EnableCompletion {
		if err := scheduler.RegisterCompletionJob(database); err != nil {
			log.Fatal().Err(err).Msg("Failed to register completion job")
		}
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
