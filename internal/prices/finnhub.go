package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// finnhubQuote is the subset of Finnhub's /quote response we use.
type finnhubQuote struct {
	Current decimal.Decimal `json:"c"`
}

// FinnhubSource queries the Finnhub quote API.
type FinnhubSource struct {
	client *resty.Client
	apiKey string
}

// NewFinnhubSource creates a client for baseURL (e.g. https://finnhub.io/api/v1).
func NewFinnhubSource(baseURL, apiKey string, timeout time.Duration) *FinnhubSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &FinnhubSource{client: client, apiKey: apiKey}
}

// Quote returns the current price ("c") for symbol. Finnhub answers unknown
// symbols with c=0, which is reported as ErrNoQuote.
func (s *FinnhubSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var q finnhubQuote
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  s.apiKey,
		}).
		SetResult(&q).
		Get("/quote")
	if err != nil {
		return decimal.Zero, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("finnhub quote %s: status %d", symbol, resp.StatusCode())
	}
	if !q.Current.IsPositive() {
		return decimal.Zero, ErrNoQuote
	}
	return q.Current, nil
}
