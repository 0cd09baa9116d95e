package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/papertrade/internal/models"
)

// ErrVersionConflict is returned by ExecuteTrade when the stored portfolio
// changed since it was read. Callers reload and retry.
var ErrVersionConflict = errors.New("portfolio version conflict")

// StorageManager provides access to domain-specific storage interfaces.
type StorageManager interface {
	UserStorage() UserStorage
	PortfolioStorage() PortfolioStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}

// UserStorage is the credential store.
type UserStorage interface {
	// GetUserByEmail returns a models.KindNotFound error when no user has email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	// CreateUser stores the user and its initial portfolio atomically.
	// Returns a models.KindConflict error when the email is taken.
	CreateUser(ctx context.Context, user *models.User, portfolio *models.Portfolio) error
}

// PortfolioStorage owns portfolios and the append-only trade log.
type PortfolioStorage interface {
	GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)
	// ExecuteTrade replaces the portfolio and appends the trade in a single
	// transaction, provided the stored portfolio is still at expectedVersion.
	ExecuteTrade(ctx context.Context, expectedVersion uint64, portfolio *models.Portfolio, trade *models.Trade) error
	// ListTrades returns the user's trades newest first.
	ListTrades(ctx context.Context, userID string, limit int) ([]*models.Trade, error)
}

// KeyValueStorage provides basic key-value operations.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
