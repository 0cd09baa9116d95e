package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
	"github.com/bobmcallan/papertrade/internal/portfolio"
)

// PortfolioService is the portfolio API behind the handlers.
type PortfolioService interface {
	Get(ctx context.Context, userID string) (*models.Portfolio, error)
	Trade(ctx context.Context, userID, symbol string, side models.Side, qty decimal.Decimal) (*portfolio.TradeResult, error)
	Trades(ctx context.Context, userID string, limit int) ([]*models.Trade, error)
	Summary(ctx context.Context, userID string) (*portfolio.Summary, error)
}

type tradeRequest struct {
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Qty    decimal.Decimal `json:"qty"`
}

// PortfolioHandler serves the authenticated portfolio endpoints. Every
// handler expects RequireAuth to have run.
type PortfolioHandler struct {
	portfolios PortfolioService
	logger     *common.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(portfolios PortfolioService, logger *common.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, logger: logger}
}

// HandleGet handles GET /api/portfolio.
func (h *PortfolioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	p, err := h.portfolios.Get(r.Context(), userID)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// HandleTrade handles POST /api/portfolio/trade.
func (h *PortfolioHandler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	var req tradeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}
	side, err := models.ParseSide(req.Side)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	res, err := h.portfolios.Trade(r.Context(), userID, req.Symbol, side, req.Qty)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Trade executed",
		"portfolio": res.Portfolio,
		"trade":     res.Trade,
	})
}

// HandleTrades handles GET /api/portfolio/trades?limit=N.
func (h *PortfolioHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteDomainError(w, h.logger, models.Errorf(models.KindValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	trades, err := h.portfolios.Trades(r.Context(), userID, limit)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

// HandleSummary handles GET /api/portfolio/summary.
func (h *PortfolioHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	sum, err := h.portfolios.Summary(r.Context(), userID)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}

func (h *PortfolioHandler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		WriteDomainError(w, h.logger, models.Errorf(models.KindAuth, "unauthorized"))
	}
	return userID, ok
}
