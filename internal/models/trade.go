package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", Errorf(KindValidation, "side must be buy or sell, got %q", s)
}

// Trade is an append-only record of an executed trade. RealizedPnL is only
// set on sells: (price - avgPrice) * qty at the time of the sale.
type Trade struct {
	ID          string          `json:"id" badgerhold:"key"`
	UserID      string          `json:"userId" badgerhold:"index"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	RealizedPnL decimal.Decimal `json:"realizedPnl"`
	Timestamp   time.Time       `json:"timestamp"`
}
