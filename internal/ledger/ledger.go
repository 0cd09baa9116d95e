// Package ledger applies buy and sell trades to a portfolio using
// weighted-average cost accounting.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/models"
)

// Apply executes a trade against a copy of p and returns the updated
// portfolio together with the trade record describing it. p is never
// modified; on error nothing is returned but the error.
//
// price is the execution price from the price source. A sell is checked
// against the position first, so NoPosition and InsufficientShares do not
// depend on the price; otherwise an absent price fails with
// UpstreamUnavailable.
func Apply(p *models.Portfolio, symbol string, side models.Side, qty decimal.Decimal, price decimal.NullDecimal) (*models.Portfolio, *models.Trade, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, nil, err
	}
	if !qty.IsPositive() {
		return nil, nil, models.Errorf(models.KindValidation, "qty must be positive, got %s", qty)
	}
	switch side {
	case models.SideBuy:
	case models.SideSell:
		if _, err := holding(p, sym, qty); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, models.Errorf(models.KindValidation, "side must be buy or sell, got %q", side)
	}
	if !price.Valid {
		return nil, nil, models.Errorf(models.KindUpstreamUnavailable, "no price available for %s", sym)
	}
	if !price.Decimal.IsPositive() {
		return nil, nil, models.Errorf(models.KindValidation, "price must be positive, got %s", price.Decimal)
	}

	next := p.Clone()
	px := price.Decimal
	trade := &models.Trade{
		ID:          uuid.New().String(),
		UserID:      p.UserID,
		Symbol:      sym,
		Side:        side,
		Qty:         qty,
		Price:       px,
		RealizedPnL: decimal.Zero,
		Timestamp:   time.Now().UTC(),
	}

	if side == models.SideBuy {
		if err := buy(next, sym, qty, px); err != nil {
			return nil, nil, err
		}
	} else {
		pnl, err := sell(next, sym, qty, px)
		if err != nil {
			return nil, nil, err
		}
		trade.RealizedPnL = pnl
	}

	next.Version++
	next.UpdatedAt = trade.Timestamp
	return next, trade, nil
}

func buy(p *models.Portfolio, sym string, qty, price decimal.Decimal) error {
	cost := qty.Mul(price)
	if p.Cash.LessThan(cost) {
		return models.Errorf(models.KindInsufficientFunds,
			"not enough cash: need %s, have %s", cost.StringFixed(2), p.Cash.StringFixed(2))
	}

	if i := p.Find(sym); i >= 0 {
		pos := &p.Positions[i]
		total := pos.AvgPrice.Mul(pos.Qty).Add(price.Mul(qty))
		pos.Qty = pos.Qty.Add(qty)
		pos.AvgPrice = total.Div(pos.Qty)
	} else {
		p.Positions = append(p.Positions, models.Position{Symbol: sym, Qty: qty, AvgPrice: price})
	}

	p.Cash = p.Cash.Sub(cost)
	return nil
}

// sell reduces the position and returns the realized profit or loss against
// the average cost. AvgPrice itself is left unchanged.
func sell(p *models.Portfolio, sym string, qty, price decimal.Decimal) (decimal.Decimal, error) {
	i, err := holding(p, sym, qty)
	if err != nil {
		return decimal.Zero, err
	}
	pos := &p.Positions[i]

	pnl := price.Sub(pos.AvgPrice).Mul(qty)
	p.Cash = p.Cash.Add(qty.Mul(price))
	pos.Qty = pos.Qty.Sub(qty)
	if pos.Qty.IsZero() {
		p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
	}
	return pnl, nil
}

// holding returns the index of the position in sym, failing when there is
// none or it holds fewer than qty shares.
func holding(p *models.Portfolio, sym string, qty decimal.Decimal) (int, error) {
	i := p.Find(sym)
	if i < 0 {
		return -1, models.Errorf(models.KindNoPosition, "no open position in %s", sym)
	}
	if have := p.Positions[i].Qty; have.LessThan(qty) {
		return -1, models.Errorf(models.KindInsufficientShares,
			"not enough shares of %s: have %s, want %s", sym, have, qty)
	}
	return i, nil
}
