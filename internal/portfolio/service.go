// Package portfolio executes trades against stored portfolios and reports
// on them.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/ledger"
	"github.com/bobmcallan/papertrade/internal/metrics"
	"github.com/bobmcallan/papertrade/internal/models"
)

const (
	// maxAttempts bounds reload-and-retry on optimistic-concurrency conflicts.
	maxAttempts = 3

	DefaultTradeLimit = 50
	MaxTradeLimit     = 500
)

// PriceLookup returns the current price of a symbol, invalid when unknown.
type PriceLookup interface {
	Price(ctx context.Context, symbol string) decimal.NullDecimal
}

// Service is the portfolio API used by the HTTP handlers.
type Service struct {
	store   interfaces.PortfolioStorage
	prices  PriceLookup
	logger  *common.Logger
	metrics *metrics.Metrics

	locks sync.Map // user id -> *sync.Mutex
}

// NewService creates the portfolio service. m may be nil.
func NewService(store interfaces.PortfolioStorage, prices PriceLookup, logger *common.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, prices: prices, logger: logger, metrics: m}
}

// TradeResult is the outcome of a successful trade.
type TradeResult struct {
	Portfolio *models.Portfolio `json:"portfolio"`
	Trade     *models.Trade     `json:"trade"`
}

// Get returns the user's portfolio.
func (s *Service) Get(ctx context.Context, userID string) (*models.Portfolio, error) {
	return s.store.GetPortfolio(ctx, userID)
}

// Trade buys or sells qty shares of symbol at the current market price.
// Trades for the same user are serialised; the portfolio and the trade log
// are written in one transaction.
func (s *Service) Trade(ctx context.Context, userID, symbol string, side models.Side, qty decimal.Decimal) (*TradeResult, error) {
	result, err := s.trade(ctx, userID, symbol, side, qty)

	outcome := "ok"
	if err != nil {
		outcome = string(models.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	s.metrics.ObserveTrade(string(side), outcome)
	return result, err
}

func (s *Service) trade(ctx context.Context, userID, symbol string, side models.Side, qty decimal.Decimal) (*TradeResult, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if side != models.SideBuy && side != models.SideSell {
		return nil, models.Errorf(models.KindValidation, "side must be buy or sell, got %q", side)
	}
	if !qty.IsPositive() {
		return nil, models.Errorf(models.KindValidation, "qty must be positive, got %s", qty)
	}

	// An absent price is left to ledger.Apply so a sell still reports
	// position errors first.
	price := s.prices.Price(ctx, sym)

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 1; ; attempt++ {
		current, err := s.store.GetPortfolio(ctx, userID)
		if err != nil {
			return nil, err
		}

		next, trade, err := ledger.Apply(current, sym, side, qty, price)
		if err != nil {
			return nil, err
		}

		err = s.store.ExecuteTrade(ctx, current.Version, next, trade)
		if err == nil {
			s.logger.Info().
				Str("user_id", userID).
				Str("symbol", sym).
				Str("side", string(side)).
				Str("qty", qty.String()).
				Str("price", price.Decimal.String()).
				Str("cash", next.Cash.StringFixed(2)).
				Msg("Trade executed")
			return &TradeResult{Portfolio: next, Trade: trade}, nil
		}
		if !errors.Is(err, interfaces.ErrVersionConflict) || attempt >= maxAttempts {
			return nil, err
		}

		s.metrics.ObserveTradeRetry()
		s.logger.Warn().
			Str("user_id", userID).
			Int("attempt", attempt).
			Msg("Portfolio changed during trade, retrying")
	}
}

// Trades returns the user's trade history newest first. limit <= 0 means
// DefaultTradeLimit; it is capped at MaxTradeLimit.
func (s *Service) Trades(ctx context.Context, userID string, limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = DefaultTradeLimit
	}
	if limit > MaxTradeLimit {
		limit = MaxTradeLimit
	}
	trades, err := s.store.ListTrades(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (s *Service) lockFor(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
