package prices

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// SimulatedSource produces a random walk per symbol so the service can be
// demoed without an upstream account. Each Quote moves the price by at most
// ±1% and rounds to cents.
type SimulatedSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]decimal.Decimal
}

// NewSimulatedSource creates a source whose walk is reproducible for seed.
func NewSimulatedSource(seed int64) *SimulatedSource {
	prices := make(map[string]decimal.Decimal, len(openingPrices))
	for sym, p := range openingPrices {
		prices[sym] = p
	}
	return &SimulatedSource{
		rng:    rand.New(rand.NewSource(seed)),
		prices: prices,
	}
}

// Quote advances and returns the walk for symbol.
func (s *SimulatedSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prices[symbol]
	if !ok {
		p = openingFor(symbol)
	}

	step := decimal.NewFromFloat(s.rng.Float64()*0.02 - 0.01)
	next := p.Mul(decimal.NewFromInt(1).Add(step)).Round(2)
	if !next.IsPositive() {
		next = decimal.RequireFromString("0.01")
	}
	s.prices[symbol] = next
	return next, nil
}

// openingFor derives a stable starting price between 10 and 500 for symbols
// outside the catalogue.
func openingFor(symbol string) decimal.Decimal {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return decimal.NewFromInt(int64(10 + h.Sum32()%491))
}
