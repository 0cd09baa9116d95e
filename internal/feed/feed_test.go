package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/metrics"
)

type fixedPrices struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func (f *fixedPrices) Price(_ context.Context, symbol string) decimal.NullDecimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(p)
}

type recordingSink struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recordingSink) Send(u Update) error {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) snapshot() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

func newTestBroker(interval time.Duration) *Broker {
	prices := &fixedPrices{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(100),
		"MSFT": decimal.NewFromInt(200),
	}}
	return NewBroker(prices, interval, common.NewSilentLogger(), metrics.New())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSession_SubscribeEmitsUpdates(t *testing.T) {
	b := newTestBroker(10 * time.Millisecond)
	sink := &recordingSink{}
	s, err := b.Open(sink)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.Subscribe("aapl"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	waitFor(t, func() bool { return len(sink.snapshot()) >= 2 })

	u := sink.snapshot()[0]
	if u.Type != "priceUpdate" || u.Symbol != "AAPL" {
		t.Errorf("unexpected update %+v", u)
	}
	if !u.Price.Valid || !u.Price.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected price 100, got %+v", u.Price)
	}
	if u.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestSession_NullPriceIsEmitted(t *testing.T) {
	b := newTestBroker(10 * time.Millisecond)
	sink := &recordingSink{}
	s, _ := b.Open(sink)
	defer s.Close()

	s.Subscribe("UNKNOWN")
	waitFor(t, func() bool { return len(sink.snapshot()) >= 1 })

	u := sink.snapshot()[0]
	if u.Price.Valid {
		t.Errorf("expected null price, got %s", u.Price.Decimal)
	}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"price":null`) {
		t.Errorf("expected price null in %s", data)
	}
}

func TestSession_ResubscribeStopsOldSymbol(t *testing.T) {
	b := newTestBroker(5 * time.Millisecond)
	sink := &recordingSink{}
	s, _ := b.Open(sink)
	defer s.Close()

	s.Subscribe("AAPL")
	waitFor(t, func() bool { return len(sink.snapshot()) >= 1 })

	if err := s.Subscribe("MSFT"); err != nil {
		t.Fatalf("resubscribe failed: %v", err)
	}
	cut := len(sink.snapshot())

	waitFor(t, func() bool { return len(sink.snapshot()) >= cut+3 })
	for _, u := range sink.snapshot()[cut:] {
		if u.Symbol != "MSFT" {
			t.Fatalf("received %s update after resubscribing to MSFT", u.Symbol)
		}
	}
	if s.Symbol() != "MSFT" {
		t.Errorf("expected MSFT, got %q", s.Symbol())
	}
}

func TestSession_CloseStopsUpdates(t *testing.T) {
	b := newTestBroker(5 * time.Millisecond)
	sink := &recordingSink{}
	s, _ := b.Open(sink)

	s.Subscribe("AAPL")
	waitFor(t, func() bool { return len(sink.snapshot()) >= 1 })

	s.Close()
	n := len(sink.snapshot())
	time.Sleep(50 * time.Millisecond)
	if got := len(sink.snapshot()); got != n {
		t.Errorf("expected no updates after Close, got %d more", got-n)
	}
	if b.Count() != 0 {
		t.Errorf("expected broker to forget session, have %d", b.Count())
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	b := newTestBroker(time.Second)
	s, _ := b.Open(&recordingSink{})
	s.Subscribe("AAPL")

	s.Close()
	s.Close()

	if err := s.Subscribe("MSFT"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSession_CloseWithoutSubscription(t *testing.T) {
	b := newTestBroker(time.Second)
	s, _ := b.Open(&recordingSink{})
	s.Close()
	if b.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", b.Count())
	}
}

func TestSession_InvalidSymbol(t *testing.T) {
	b := newTestBroker(time.Second)
	s, _ := b.Open(&recordingSink{})
	defer s.Close()

	for _, sym := range []string{"", "   ", "BAD SYMBOL", strings.Repeat("A", 40)} {
		if err := s.Subscribe(sym); err == nil {
			t.Errorf("expected error for %q", sym)
		}
	}
	if s.Symbol() != "" {
		t.Errorf("invalid subscribe should not start polling, have %q", s.Symbol())
	}
}

func TestBroker_CloseClosesSessions(t *testing.T) {
	b := newTestBroker(5 * time.Millisecond)
	sinks := make([]*recordingSink, 3)
	for i := range sinks {
		sinks[i] = &recordingSink{}
		s, _ := b.Open(sinks[i])
		s.Subscribe("AAPL")
	}
	if b.Count() != 3 {
		t.Fatalf("expected 3 sessions, got %d", b.Count())
	}

	b.Close()
	if b.Count() != 0 {
		t.Errorf("expected 0 sessions after Close, got %d", b.Count())
	}
	if _, err := b.Open(&recordingSink{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from closed broker, got %v", err)
	}
}

func TestSinkFunc(t *testing.T) {
	var got Update
	var sink Sink = SinkFunc(func(u Update) error { got = u; return nil })
	sink.Send(Update{Symbol: "X"})
	if got.Symbol != "X" {
		t.Error("SinkFunc did not forward")
	}
}

func TestSession_DoneClosedOnBrokerClose(t *testing.T) {
	b := newTestBroker(time.Second)
	s, _ := b.Open(&recordingSink{})

	select {
	case <-s.Done():
		t.Fatal("Done closed before Close")
	default:
	}

	b.Close()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after broker Close")
	}
}
