package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// PortfolioStorage implements interfaces.PortfolioStorage using BadgerDB.
type PortfolioStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewPortfolioStorage creates a portfolio store backed by BadgerDB.
func NewPortfolioStorage(db *BadgerDB, logger *common.Logger) *PortfolioStorage {
	return &PortfolioStorage{db: db, logger: logger}
}

// GetPortfolio loads the portfolio owned by userID.
func (s *PortfolioStorage) GetPortfolio(_ context.Context, userID string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := s.db.Store().Get(userID, &p); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.Errorf(models.KindNotFound, "portfolio not found")
		}
		return nil, fmt.Errorf("failed to get portfolio %s: %w", userID, err)
	}
	if p.Positions == nil {
		p.Positions = []models.Position{}
	}
	return &p, nil
}

// ExecuteTrade writes the new portfolio state and the trade record together.
// Either both land or neither does.
func (s *PortfolioStorage) ExecuteTrade(_ context.Context, expectedVersion uint64, portfolio *models.Portfolio, trade *models.Trade) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badger.Txn) error {
		var current models.Portfolio
		if err := store.TxGet(tx, portfolio.UserID, &current); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return models.Errorf(models.KindNotFound, "portfolio not found")
			}
			return err
		}
		if current.Version != expectedVersion {
			return interfaces.ErrVersionConflict
		}
		if err := store.TxUpsert(tx, portfolio.UserID, portfolio); err != nil {
			return err
		}
		return store.TxInsert(tx, trade.ID, trade)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict), errors.Is(err, interfaces.ErrVersionConflict):
		return interfaces.ErrVersionConflict
	case models.KindOf(err) != "":
		return err
	default:
		return fmt.Errorf("failed to execute trade: %w", err)
	}
}

// ListTrades returns up to limit trades for userID, newest first.
// limit <= 0 returns all of them.
func (s *PortfolioStorage) ListTrades(_ context.Context, userID string, limit int) ([]*models.Trade, error) {
	query := badgerhold.Where("UserID").Eq(userID).Index("UserID").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var trades []*models.Trade
	if err := s.db.Store().Find(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list trades for %s: %w", userID, err)
	}
	if trades == nil {
		trades = []*models.Trade{}
	}
	return trades, nil
}
