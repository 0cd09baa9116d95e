package prices

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/cache"
)

// CachedSource serves recent quotes from a QuoteCache and only asks the
// wrapped source on a miss. Failures are not cached.
type CachedSource struct {
	next  Source
	cache *cache.QuoteCache
}

// NewCachedSource wraps next with c.
func NewCachedSource(next Source, c *cache.QuoteCache) *CachedSource {
	return &CachedSource{next: next, cache: c}
}

func (s *CachedSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p, ok := s.cache.Get(symbol); ok {
		return p, nil
	}
	p, err := s.next.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	s.cache.Set(symbol, p)
	return p, nil
}
