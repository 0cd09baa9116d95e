package portfolio

import (
	"context"

	"github.com/shopspring/decimal"
)

// PositionSummary values one open position at the current market price.
// When no price is available the position is valued at its average cost and
// PriceAvailable is false.
type PositionSummary struct {
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	AvgPrice       decimal.Decimal `json:"avgPrice"`
	Price          decimal.Decimal `json:"price"`
	PriceAvailable bool            `json:"priceAvailable"`
	Invested       decimal.Decimal `json:"invested"`
	MarketValue    decimal.Decimal `json:"marketValue"`
	ProfitLoss     decimal.Decimal `json:"profitLoss"`
}

// Summary is the dashboard view of a portfolio.
//
//	invested   = sum(avgPrice * qty)
//	current    = sum(price * qty) + cash
//	profitLoss = current - (invested + cash)
type Summary struct {
	Cash       decimal.Decimal   `json:"cash"`
	Invested   decimal.Decimal   `json:"invested"`
	Current    decimal.Decimal   `json:"current"`
	ProfitLoss decimal.Decimal   `json:"profitLoss"`
	Positions  []PositionSummary `json:"positions"`
}

// Summary values the user's portfolio at current prices.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	p, err := s.store.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Cash:      p.Cash,
		Invested:  decimal.Zero,
		Positions: make([]PositionSummary, 0, len(p.Positions)),
	}
	marketValue := decimal.Zero

	for _, pos := range p.Positions {
		ps := PositionSummary{
			Symbol:   pos.Symbol,
			Qty:      pos.Qty,
			AvgPrice: pos.AvgPrice,
			Price:    pos.AvgPrice,
			Invested: pos.AvgPrice.Mul(pos.Qty),
		}
		if live := s.prices.Price(ctx, pos.Symbol); live.Valid {
			ps.Price = live.Decimal
			ps.PriceAvailable = true
		}
		ps.MarketValue = ps.Price.Mul(pos.Qty)
		ps.ProfitLoss = ps.MarketValue.Sub(ps.Invested)

		sum.Invested = sum.Invested.Add(ps.Invested)
		marketValue = marketValue.Add(ps.MarketValue)
		sum.Positions = append(sum.Positions, ps)
	}

	sum.Current = marketValue.Add(p.Cash)
	sum.ProfitLoss = sum.Current.Sub(sum.Invested.Add(p.Cash))
	return sum, nil
}
