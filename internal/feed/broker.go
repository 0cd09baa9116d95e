// Package feed pushes periodic price updates to live connections.
//
// Every connection owns one Session holding at most one subscription. A
// subscription is a goroutine polling the price source on a ticker until it
// is replaced or the session closes.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/metrics"
)

// ErrClosed is returned when subscribing on a closed session or broker.
var ErrClosed = errors.New("feed: session closed")

// PriceLookup returns the current price of a symbol, invalid when unknown.
type PriceLookup interface {
	Price(ctx context.Context, symbol string) decimal.NullDecimal
}

// Sink delivers updates to one connection.
type Sink interface {
	Send(Update) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Update) error

func (f SinkFunc) Send(u Update) error { return f(u) }

// Update is the priceUpdate message pushed to clients.
type Update struct {
	Type      string              `json:"type"`
	Symbol    string              `json:"symbol"`
	Price     decimal.NullDecimal `json:"price"`
	Timestamp time.Time           `json:"timestamp"`
}

// Broker creates sessions and tracks them so they can be closed together.
type Broker struct {
	prices   PriceLookup
	interval time.Duration
	logger   *common.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewBroker creates a broker polling prices every interval (5s when <= 0).
func NewBroker(prices PriceLookup, interval time.Duration, logger *common.Logger, m *metrics.Metrics) *Broker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Broker{
		prices:   prices,
		interval: interval,
		logger:   logger,
		metrics:  m,
		sessions: make(map[string]*Session),
	}
}

// Open registers a new session delivering to sink.
func (b *Broker) Open(sink Sink) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	s := &Session{
		id:     uuid.New().String(),
		broker: b,
		sink:   sink,
		done:   make(chan struct{}),
	}
	b.sessions[s.id] = s
	b.metrics.SessionOpened()
	b.logger.Debug().Str("session", s.id).Msg("Feed session opened")
	return s, nil
}

// Count returns the number of open sessions.
func (b *Broker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close closes every open session and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	open := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		open = append(open, s)
	}
	b.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	b.logger.Info().Int("sessions", len(open)).Msg("Feed broker closed")
}

func (b *Broker) forget(id string) {
	b.mu.Lock()
	if _, ok := b.sessions[id]; ok {
		delete(b.sessions, id)
		b.metrics.SessionClosed()
	}
	b.mu.Unlock()
}
