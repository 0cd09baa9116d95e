package feed

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/papertrade/internal/models"
)

// Session is one connection's subscription state. A session has at most one
// active subscription; Subscribe replaces it.
type Session struct {
	id     string
	broker *Broker
	sink   Sink

	mu     sync.Mutex
	symbol string
	gen    uint64
	cancel context.CancelFunc
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Done is closed when the session closes, including when the broker shuts
// down underneath the connection.
func (s *Session) Done() <-chan struct{} { return s.done }

// Symbol returns the currently subscribed symbol, empty when none.
func (s *Session) Symbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

// Subscribe cancels any current subscription and starts polling symbol.
// Once Subscribe returns, no update for the previous symbol is delivered.
func (s *Session) Subscribe(symbol string) error {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.stopLocked()
	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.symbol = sym
	s.broker.metrics.SubscriptionStarted()

	s.wg.Add(1)
	go s.poll(ctx, s.gen, sym)

	s.broker.logger.Debug().
		Str("session", s.id).
		Str("symbol", sym).
		Msg("Subscribed")
	return nil
}

// Close stops the active subscription and detaches from the broker. It is
// safe to call more than once; no update is delivered after it returns.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopLocked()
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	s.broker.forget(s.id)
	s.broker.logger.Debug().Str("session", s.id).Msg("Feed session closed")
}

// stopLocked cancels the running poller. Caller holds s.mu.
func (s *Session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.symbol = ""
	s.broker.metrics.SubscriptionStopped()
}

func (s *Session) poll(ctx context.Context, gen uint64, symbol string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.broker.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price := s.broker.prices.Price(ctx, symbol)
			if !s.emit(gen, Update{
				Type:      "priceUpdate",
				Symbol:    symbol,
				Price:     price,
				Timestamp: time.Now().UTC(),
			}) {
				return
			}
		}
	}
}

// emit delivers u if gen is still the active subscription. The check and
// the send happen under s.mu so a concurrent Subscribe or Close cannot slip
// between them.
func (s *Session) emit(gen uint64, u Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return false
	}
	if err := s.sink.Send(u); err != nil {
		s.broker.logger.Warn().
			Str("session", s.id).
			Str("symbol", u.Symbol).
			Err(err).
			Msg("Failed to deliver price update")
		return true
	}
	s.broker.metrics.ObserveFeedUpdate(u.Price.Valid)
	return true
}
