package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/papertrade/internal/auth"
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/config"
	"github.com/bobmcallan/papertrade/internal/feed"
	"github.com/bobmcallan/papertrade/internal/handlers"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/metrics"
	"github.com/bobmcallan/papertrade/internal/models"
	"github.com/bobmcallan/papertrade/internal/portfolio"
	"github.com/bobmcallan/papertrade/internal/prices"
	"github.com/bobmcallan/papertrade/internal/storage"
)

// devSecretKey is where a generated dev-mode JWT secret is kept so tokens
// survive restarts.
const devSecretKey = "auth.dev_jwt_secret"

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager
	Metrics *metrics.Metrics

	Prices     *prices.Service
	Broker     *feed.Broker
	Accounts   *auth.Service
	Portfolios *portfolio.Service

	// HTTP handlers
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	AuthHandler      *handlers.AuthHandler
	PortfolioHandler *handlers.PortfolioHandler
	StocksHandler    *handlers.StocksHandler
	WSHandler        *handlers.WSHandler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	// Validate environment setting
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("RUNNING IN DEV MODE, do not use in production")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.Storage = store

	if err := a.initServices(); err != nil {
		store.Close()
		return nil, err
	}
	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

func (a *App) initServices() error {
	secret, err := a.jwtSecret(context.Background())
	if err != nil {
		return err
	}
	tokens := auth.NewTokenIssuer(secret, a.Config.Auth.GetTokenTTL())

	a.Prices = prices.NewFromConfig(&a.Config.Prices, a.Logger, a.Metrics)
	a.Broker = feed.NewBroker(a.Prices, a.Config.Feed.GetInterval(), a.Logger, a.Metrics)
	a.Accounts = auth.NewService(a.Storage.UserStorage(), tokens, a.Config.Portfolio.GetStartingCash(), a.Logger)
	a.Portfolios = portfolio.NewService(a.Storage.PortfolioStorage(), a.Prices, a.Logger, a.Metrics)

	a.Logger.Debug().
		Str("feed_interval", a.Config.Feed.GetInterval().String()).
		Str("token_ttl", tokens.TTL().String()).
		Msg("Services initialized")
	return nil
}

// jwtSecret returns the configured secret. In dev mode an empty secret is
// replaced by a random one persisted in the key-value store.
func (a *App) jwtSecret(ctx context.Context) ([]byte, error) {
	if s := a.Config.Auth.JWTSecret; s != "" {
		return []byte(s), nil
	}
	if !a.Config.IsDevMode() {
		return nil, errors.New("auth.jwt_secret is required outside dev mode")
	}

	kv := a.Storage.KeyValueStorage()
	stored, err := kv.Get(ctx, devSecretKey)
	if err == nil && stored != "" {
		return []byte(stored), nil
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to read dev jwt secret: %w", err)
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	secret := hex.EncodeToString(b)
	if err := kv.Set(ctx, devSecretKey, secret); err != nil {
		return nil, fmt.Errorf("failed to store dev jwt secret: %w", err)
	}
	a.Logger.Warn().Msg("Generated a dev-mode JWT secret; set auth.jwt_secret for production")
	return []byte(secret), nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.AuthHandler = handlers.NewAuthHandler(a.Accounts, a.Logger)
	a.PortfolioHandler = handlers.NewPortfolioHandler(a.Portfolios, a.Logger)
	a.StocksHandler = handlers.NewStocksHandler(a.Prices, a.Logger)
	a.WSHandler = handlers.NewWSHandler(a.Broker, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close stops live sessions and closes storage.
func (a *App) Close() error {
	if a.Broker != nil {
		a.Broker.Close()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
