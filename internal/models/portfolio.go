package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Cash, quantities and prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultStartingCash is the cash balance of a freshly created portfolio.
var DefaultStartingCash = decimal.NewFromInt(10000)

// Position is a user's holding in one symbol. Qty is always positive while
// the position exists.
type Position struct {
	Symbol   string          `json:"symbol"`
	Qty      decimal.Decimal `json:"qty"`
	AvgPrice decimal.Decimal `json:"avgPrice"`
}

// Portfolio is a user's cash plus open positions, keyed by user id.
// A symbol appears at most once in Positions.
type Portfolio struct {
	UserID    string          `json:"userId" badgerhold:"key"`
	Cash      decimal.Decimal `json:"cash"`
	Positions []Position      `json:"positions"`
	Version   uint64          `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewPortfolio returns an empty portfolio holding cash.
func NewPortfolio(userID string, cash decimal.Decimal) *Portfolio {
	return &Portfolio{
		UserID:    userID,
		Cash:      cash,
		Positions: []Position{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy so callers can mutate it without touching p.
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	c.Positions = make([]Position, len(p.Positions))
	copy(c.Positions, p.Positions)
	return &c
}

// Find returns the index of the open position for symbol, or -1.
func (p *Portfolio) Find(symbol string) int {
	for i := range p.Positions {
		if p.Positions[i].Symbol == symbol {
			return i
		}
	}
	return -1
}
