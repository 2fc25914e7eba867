package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/pxfc-auction/go/internal/auction"
	"github.com/mcdev12/pxfc-auction/go/internal/auth"
	"github.com/mcdev12/pxfc-auction/go/internal/broadcast"
	"github.com/mcdev12/pxfc-auction/go/internal/cache"
	"github.com/mcdev12/pxfc-auction/go/internal/dbconfig"
	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := loadConfig(getEnv("AUCTION_CONFIG", "auction.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	defaultBudget, err := config.defaultBudget()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ledger store
	var database *sql.DB
	var store ledger.Store
	switch config.Store {
	case "memory":
		store = ledger.NewMemory(nil, config.Auction.LockTimeout)
		log.Warn().Msg("using in-memory store, state is lost on restart")
	default:
		database, err = setupDatabase(dbconfig.NewConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to setup database")
		}
		defer database.Close()

		pg := ledger.NewPostgres(database, config.Auction.LockTimeout)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		store = pg
	}

	// Broadcast hub
	hub := broadcast.NewHub(broadcast.DefaultHubConfig())
	go hub.Start(ctx)

	var publisher auction.Publisher = hub
	if config.NATS.URL != "" {
		natsCfg := broadcast.DefaultNATSConfig()
		natsCfg.URL = config.NATS.URL
		natsCfg.Subject = config.NATS.Subject

		nc, err := broadcast.ConnectNATS(natsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer nc.Close()
		relay, err := broadcast.NewNATSRelay(nc, natsCfg.Subject, hub)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start NATS relay")
		}
		defer relay.Close()
		publisher = relay
		log.Info().Str("subject", natsCfg.Subject).Msg("relaying auction events through NATS")

		if config.NATS.ArchiveStream != "" {
			archiveCfg := broadcast.DefaultArchiveConfig()
			archiveCfg.StreamName = config.NATS.ArchiveStream

			archive, err := broadcast.NewArchive(ctx, nc, relay, archiveCfg)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to setup event archive")
			}
			go archive.Run(ctx)
			publisher = archive
		}
	}

	// Snapshot cache
	var snapshots cache.Snapshots = cache.Noop{}
	if config.Redis.URL != "" {
		redisCache, err := cache.NewRedisFromURL(ctx, config.Redis.URL, config.Redis.Prefix, config.Redis.TTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		snapshots = redisCache
		log.Info().Dur("ttl", config.Redis.TTL).Msg("snapshot cache enabled")
	}

	authService, err := auth.NewService(auth.Config{
		Secret:   config.Auth.Secret,
		Username: config.Auth.Username,
		Password: config.Auth.Password,
		TokenTTL: config.Auth.TokenTTL,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup admin auth")
	}

	services := setupServices(config, store, hub, publisher, snapshots, authService, defaultBudget)
	server := setupServer(config, services)

	// Start HTTP server
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("store", config.Store).
			Msg("auction server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down auction server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	log.Info().Msg("auction server stopped")
}
