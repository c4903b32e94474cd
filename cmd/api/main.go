package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/rebornapp/reborn-golang/internal/assets"
	"github.com/rebornapp/reborn-golang/internal/auth"
	"github.com/rebornapp/reborn-golang/internal/config"
	"github.com/rebornapp/reborn-golang/internal/database"
	"github.com/rebornapp/reborn-golang/internal/handlers"
	"github.com/rebornapp/reborn-golang/internal/routes"
	"github.com/rebornapp/reborn-golang/internal/service"
	"github.com/rebornapp/reborn-golang/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// --- Database ---
	db, err := database.Open(cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// --- Asset host ---
	uploads, err := assets.NewMinIOStore(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to asset store", zap.Error(err))
	}

	// --- Auth ---
	var verifier auth.Verifier
	if cfg.AuthDisabled {
		logger.Warn("AUTH_DISABLED is set; accepting any bearer token")
		verifier = auth.AllowAll{}
	} else {
		if cfg.AuthJWKSURL == "" {
			logger.Fatal("AUTH_JWKS_URL is not set")
		}
		verifier, err = auth.NewJWKSVerifier(context.Background(), cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience)
		if err != nil {
			logger.Fatal("Failed to initialize token verifier", zap.Error(err))
		}
	}

	// --- Stores and services ---
	items := storage.NewItemRepository(db)
	users := storage.NewUserRepository(db)
	transactions := storage.NewTransactionRepository(db)

	app := &handlers.Handlers{
		Items:        service.NewItemService(items, users, transactions, uploads, logger.Named("items")),
		Transactions: service.NewTransactionService(transactions, items, users, logger.Named("transactions")),
		Users:        service.NewUserService(users, cfg.UserCascadeRetries, cfg.UserCascadeBackoff, logger.Named("users")),
	}

	router := routes.SetupRouter(app, verifier, cfg.CORSOrigin)

	logger.Info("Starting reborn API server", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
