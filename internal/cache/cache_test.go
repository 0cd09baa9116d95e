package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuoteCache_GetSet(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set("AAPL", decimal.RequireFromString("187.25"))

	got, ok := c.Get("AAPL")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Equal(decimal.RequireFromString("187.25")) {
		t.Errorf("expected 187.25, got %s", got)
	}

	if _, ok := c.Get("MSFT"); ok {
		t.Error("expected cache miss for unknown symbol")
	}
}

func TestQuoteCache_TTLExpiration(t *testing.T) {
	c := New(50*time.Millisecond, 100)
	c.Set("AAPL", decimal.NewFromInt(1))

	if _, ok := c.Get("AAPL"); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("AAPL"); ok {
		t.Error("expected cache miss after TTL expiration")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry removed, len=%d", c.Len())
	}
}

func TestQuoteCache_MaxEntries(t *testing.T) {
	c := New(5*time.Second, 3)

	c.Set("A", decimal.NewFromInt(1))
	c.Set("B", decimal.NewFromInt(2))
	c.Set("C", decimal.NewFromInt(3))
	c.Set("D", decimal.NewFromInt(4))

	if _, ok := c.Get("A"); ok {
		t.Error("expected A to be evicted (oldest entry)")
	}
	for _, k := range []string{"B", "C", "D"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to be in cache", k)
		}
	}
}

func TestQuoteCache_OverwriteKeepsCapacity(t *testing.T) {
	c := New(5*time.Second, 2)

	c.Set("A", decimal.NewFromInt(1))
	c.Set("B", decimal.NewFromInt(2))
	c.Set("A", decimal.NewFromInt(10))

	got, ok := c.Get("A")
	if !ok || !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected updated A=10, got %s (%v)", got, ok)
	}
	if _, ok := c.Get("B"); !ok {
		t.Error("overwrite must not evict other entries")
	}
}

func TestQuoteCache_ThreadSafety(t *testing.T) {
	c := New(5*time.Second, 10)
	symbols := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX", "ADBE", "INTC", "IBM", "ORCL"}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sym := symbols[n%len(symbols)]
			if n%2 == 0 {
				c.Set(sym, decimal.NewFromInt(int64(n)))
			} else {
				c.Get(sym)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Errorf("cache exceeded max entries: %d", c.Len())
	}
}
