package prices

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// BreakerSource stops calling a failing upstream for a while once it has
// failed maxFailures times in a row. While open, Quote fails immediately
// with gobreaker.ErrOpenState.
type BreakerSource struct {
	next Source
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSource wraps next. maxFailures <= 0 defaults to 5.
func NewBreakerSource(next Source, maxFailures int, openFor time.Duration) *BreakerSource {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	threshold := uint32(maxFailures)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price-upstream",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// An unknown symbol is an answer, not an outage. A fetch abandoned by
		// its caller says nothing about the upstream either.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoQuote) || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerSource{next: next, cb: cb}
}

// Quote forwards to the wrapped source unless the breaker is open.
func (b *BreakerSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Quote(ctx, symbol)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// State reports the breaker state (closed, half-open, open).
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}
