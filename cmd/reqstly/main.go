package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/reqstly/reqstly/api"
	"github.com/reqstly/reqstly/auth"
	"github.com/reqstly/reqstly/config"
	"github.com/reqstly/reqstly/logger"
	"github.com/reqstly/reqstly/metrics"
	"github.com/reqstly/reqstly/session"
	"github.com/reqstly/reqstly/store"
	"github.com/reqstly/reqstly/ticket"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("Starting Reqstly",
		zap.Int("port", cfg.Port),
		zap.String("db_type", cfg.DBType),
	)

	repo, err := store.Open(cfg.DBType, cfg.DSN, !cfg.SkipAutoMigrate)
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}

	hasher := auth.NewBcryptHasher(12)
	passwords, err := auth.NewPasswordStrategy(repo, hasher)
	if err != nil {
		logger.Log.Fatal("failed to initialize password strategy", zap.Error(err))
	}

	var ceremonies auth.CeremonyStore = auth.NewMemoryCeremonyStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		ceremonies = auth.NewRedisCeremonyStore(redis.NewClient(opts), "")
		logger.Log.Info("using redis ceremony store")
	}

	passkeys, err := auth.NewPasskeyStrategy(repo, auth.PasskeyConfig{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.Origins(),
	}, ceremonies)
	if err != nil {
		logger.Log.Fatal("failed to initialize passkey strategy", zap.Error(err))
	}

	resolver := auth.NewResolver(repo)

	var azure *auth.AzureManager
	if cfg.AzureConfigured() {
		azure, err = auth.NewAzureManager(context.Background(), auth.AzureConfig{
			TenantID:     cfg.AzureTenantID,
			ClientID:     cfg.AzureClientID,
			ClientSecret: cfg.AzureClientSecret,
			RedirectURL:  cfg.AzureRedirectURL,
		}, resolver)
		if err != nil {
			logger.Log.Error("failed to initialize Azure AD, federated login disabled", zap.Error(err))
			azure = nil
		}
	} else {
		logger.Log.Info("Azure AD not configured, federated login disabled")
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions := session.NewManager(repo, sessionTTL)
	tickets := ticket.NewService(repo)

	metrics.Init()

	h := api.NewHandler(api.Config{
		Passwords:    passwords,
		Passkeys:     passkeys,
		Azure:        azure,
		Resolver:     resolver,
		Sessions:     sessions,
		Tickets:      tickets,
		DB:           repo,
		SessionTTL:   sessionTTL,
		CookieSecure: cfg.CookieSecure,
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	logger.Log.Info("Server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Log.Fatal("server failed to start", zap.Error(err))
	}
}
