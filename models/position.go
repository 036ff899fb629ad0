package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/internal/constants"
	"gmocoin-bot/internal/utils"
)

// Position is an open position tracked in a ledger.
type Position struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	Side         string          `json:"side"`
	Size         decimal.Decimal `json:"size"`
	EntryPrice   decimal.Decimal `json:"entryPrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	ProfitRate   float64         `json:"profitRate"`
	// LossGain is unrealized while open and realized once closed.
	LossGain  decimal.Decimal `json:"lossGain"`
	Leverage  int             `json:"leverage"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewPosition builds a ledger position from exchange data.
func NewPosition(d PositionData) *Position {
	ts, ok := utils.ParseTime(d.Timestamp)
	if !ok {
		ts = time.Now()
	}
	lev := int(utils.ParseID(d.Leverage))
	if lev <= 0 {
		lev = constants.DefaultLeverage
	}
	price := utils.ParseDecimal(d.Price)
	return &Position{
		ID:           d.PositionID,
		Symbol:       d.Symbol,
		Side:         utils.NormalizeSide(d.Side),
		Size:         utils.ParseDecimal(d.Size),
		EntryPrice:   price,
		CurrentPrice: price,
		LossGain:     utils.ParseDecimal(d.LossGain),
		Leverage:     lev,
		Timestamp:    ts,
	}
}

// Update marks the position to last and recomputes profit rate and
// unrealized PnL.
func (p *Position) Update(last decimal.Decimal) {
	p.CurrentPrice = last.Truncate(0)
	diff := p.CurrentPrice.Sub(p.EntryPrice)
	if p.Side == constants.Sell {
		diff = diff.Neg()
	}
	if !p.EntryPrice.IsZero() {
		p.ProfitRate = diff.Div(p.EntryPrice).InexactFloat64()
	}
	p.LossGain = diff.Mul(p.Size)
}

// KeepTime is how long the position has been held.
func (p *Position) KeepTime(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// Margin is the collateral locked by the position.
func (p *Position) Margin() decimal.Decimal {
	lev := p.Leverage
	if lev <= 0 {
		lev = constants.DefaultLeverage
	}
	return p.EntryPrice.Mul(p.Size).Div(decimal.NewFromInt(int64(lev)))
}

// CloseSide is the order side that settles the position.
func (p *Position) CloseSide() string { return utils.OppositeSide(p.Side) }

// EntryReport is the one-line summary logged when a position opens.
func (p *Position) EntryReport() string {
	return fmt.Sprintf("POSITION ENTRY: id[%d] side[%s] price[%s] size[%s]",
		p.ID, p.Side, p.EntryPrice.StringFixed(0), p.Size.String())
}

// ExecuteReport is the one-line summary logged when a position closes.
func (p *Position) ExecuteReport(now time.Time) string {
	keep := p.KeepTime(now).Truncate(time.Second)
	return fmt.Sprintf("[%s: %s -> %s: %s][KEEP TIME: %s] PnL: %s",
		p.Side, p.EntryPrice.StringFixed(0), p.CloseSide(), p.CurrentPrice.StringFixed(0),
		keep, signed(p.LossGain))
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(0)
	}
	return "+" + d.StringFixed(0)
}
