package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
	"github.com/bobmcallan/papertrade/internal/prices"
)

// PriceLookup returns the current price of a symbol, invalid when unknown.
type PriceLookup interface {
	Price(ctx context.Context, symbol string) decimal.NullDecimal
}

// StocksHandler serves the stock catalogue and spot prices.
type StocksHandler struct {
	prices PriceLookup
	logger *common.Logger
}

// NewStocksHandler creates a new stocks handler.
func NewStocksHandler(lookup PriceLookup, logger *common.Logger) *StocksHandler {
	return &StocksHandler{prices: lookup, logger: logger}
}

// HandleList handles GET /api/stocks.
func (h *StocksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"stocks": prices.Catalog})
}

// HandlePrice handles GET /api/stocks/{symbol}. An unavailable price is
// returned as null with status 200.
func (h *StocksHandler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/stocks/")
	sym, err := models.NormalizeSymbol(raw)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": sym,
		"price":  h.prices.Price(r.Context(), sym),
	})
}
