package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketledger/backend/internal/config"
	"github.com/pocketledger/backend/internal/database"
	"github.com/pocketledger/backend/internal/logging"
	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
)

// @title PocketLedger API
// @version 1.0
// @description Personal finance backend: cards, transactions and transfers between a user's own cards
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so fall back to a bare one.
		bootLogger := logging.New(config.AppConfig{Environment: "production"})
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(cfg.App)

	ctx := context.Background()
	db, err := database.InitDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.ResetOnStart {
		if err := database.Reset(db, logger); err != nil {
			logger.Fatal().Err(err).Msg("Failed to reset database")
		}
	}
	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(db, logger); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	redisClient := database.InitRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	audit := services.NewAuditService(db, logger)
	hasher := services.NewPasswordHasher(cfg.Argon2)
	ledger := services.NewLedgerService(db)
	cards := services.NewCardService(db, audit)
	categories := services.NewCategoryService(db, audit, logger)
	users := services.NewUserService(db, hasher, audit)
	transactions := services.NewTransactionService(db, ledger, cards, categories, audit, logger)
	transfers := services.NewTransferService(db, ledger, cards, categories, audit, logger)

	if _, err := categories.Seed(ctx, models.DefaultCategories); err != nil {
		logger.Error().Err(err).Msg("Failed to seed default categories")
	}

	attachments := services.NewAttachmentService(db, transactions, transfers, cfg.Upload, audit, logger)
	transfers.WithAttachmentRemover(attachments)

	app := &application{
		cfg:          cfg,
		logger:       logger,
		auth:         services.NewAuthService(users, hasher, redisClient, cfg.JWT, cfg.Auth, logger),
		users:        users,
		cards:        cards,
		categories:   categories,
		transactions: transactions,
		transfers:    transfers,
		summary:      services.NewSummaryService(db, cards, logger),
		audit:        audit,
		attachments:  attachments,
		habits:       services.NewHabitService(audit, logger),
		ready: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		logger.Info().Str("event", "server_start").Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Str("event", "server_stop").Msg("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Str("event", "server_stop").Msg("Server stopped")
}
