// Package prices looks up current stock prices from an upstream provider.
//
// Sources return errors; Service turns every failure into an absent price so
// callers only ever see "known" or "unknown".
package prices

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/metrics"
)

// ErrNoQuote is returned when the upstream answered but had no usable price.
var ErrNoQuote = errors.New("no quote available")

// Source fetches a current price for a symbol.
type Source interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Service is the price lookup used by trading and the live feed.
type Service struct {
	source  Source
	logger  *common.Logger
	metrics *metrics.Metrics
}

// NewService wraps source. m may be nil.
func NewService(source Source, logger *common.Logger, m *metrics.Metrics) *Service {
	return &Service{source: source, logger: logger, metrics: m}
}

// Price returns the current price of symbol, or an invalid NullDecimal when
// the upstream failed or had nothing. A missing price means unknown, not zero.
func (s *Service) Price(ctx context.Context, symbol string) decimal.NullDecimal {
	p, err := s.source.Quote(ctx, symbol)
	if err == nil && !p.IsPositive() {
		err = ErrNoQuote
	}
	if err != nil && ctx.Err() != nil {
		// Caller went away (resubscribe, disconnect); not an upstream failure.
		return decimal.NullDecimal{}
	}
	if err != nil {
		s.metrics.ObservePriceLookup(false)
		s.logger.Warn().Str("symbol", symbol).Err(err).Msg("price lookup failed")
		return decimal.NullDecimal{}
	}
	s.metrics.ObservePriceLookup(true)
	return decimal.NewNullDecimal(p)
}
