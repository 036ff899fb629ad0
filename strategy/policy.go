package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/internal/constants"
	"gmocoin-bot/metrics"
	"gmocoin-bot/models"
	"gmocoin-bot/order"
	"gmocoin-bot/trend"
)

// ExitReason names the rule that closed a position.
type ExitReason string

const (
	ExitNone     ExitReason = ""
	ExitProfit   ExitReason = "profit"
	ExitReversal ExitReason = "reversal"
	ExitTimeout  ExitReason = "timeout"
)

// OnTicker marks positions, runs the exit rules, then asks the trend checker
// for an entry.
func (t *Trader) OnTicker(ctx context.Context, tk models.Ticker) {
	if t.state != models.StateRunning {
		return
	}
	last := tk.LastPrice()
	if last.IsZero() {
		return
	}
	now := t.now()
	t.ledger.Mark(last)

	for _, p := range t.ledger.All() {
		if reason := t.exitReason(p, now); reason != ExitNone {
			t.logger.Debug("[%s] exit %s: position %d rate %.4f", t.Name, reason, p.ID, p.ProfitRate)
			t.closePosition(ctx, p)
		}
	}

	sig := t.checker.Check(t.market)
	if sig != t.lastSignal {
		t.logger.Debug("[%s] trend %s -> %s", t.Name, t.lastSignal, sig)
	}
	t.lastSignal = sig
	switch sig {
	case trend.Up:
		metrics.RecordSignal(t.Name, sig.String())
		t.follow(ctx, constants.Buy, tk.AskPrice(), now)
	case trend.Down:
		metrics.RecordSignal(t.Name, sig.String())
		t.follow(ctx, constants.Sell, tk.BidPrice(), now)
	}
}

// exitReason applies the enabled rules in order: profit, reversal with the
// secondary rate, timeout. The first match wins.
func (t *Trader) exitReason(p *models.Position, now time.Time) ExitReason {
	rules := t.Config.ExitRules
	if rules.Profit && p.ProfitRate > t.Config.ProfitRate {
		return ExitProfit
	}
	if rules.Reversal && t.reversed(p) && p.KeepTime(now) > t.Config.GateTime.Duration() &&
		p.ProfitRate > t.Config.SecondProfitRate {
		return ExitReversal
	}
	if rules.Timeout && p.KeepTime(now) > t.Config.MaxKeepTime.Duration() {
		// a non-zero loss cut only releases positions that are losing
		// more than it
		if t.Config.LossCutRate == 0 || p.ProfitRate < t.Config.LossCutRate {
			return ExitTimeout
		}
	}
	return ExitNone
}

func (t *Trader) reversed(p *models.Position) bool {
	c, ok := t.market.LastCandle()
	if !ok {
		return false
	}
	switch p.Side {
	case constants.Buy:
		return c.IsDown()
	case constants.Sell:
		return c.IsUp()
	}
	return false
}

// canEntry reports whether the cool time has elapsed and the position cap
// leaves room.
func (t *Trader) canEntry(now time.Time) bool {
	if !t.prevEntry.IsZero() && now.Sub(t.prevEntry) < t.Config.EntryCoolTime.Duration() {
		return false
	}
	return t.pending.Len()+t.ledger.Len() < t.Config.MaxPositions
}

// follow enters on side when allowed and flattens the opposite side.
func (t *Trader) follow(ctx context.Context, side string, price decimal.Decimal, now time.Time) {
	if t.canEntry(now) {
		t.entry(ctx, side, price, now)
	}
	opposite := constants.Sell
	if side == constants.Sell {
		opposite = constants.Buy
	}
	t.closeSide(ctx, opposite)
}

func (t *Trader) entry(ctx context.Context, side string, price decimal.Decimal, now time.Time) {
	if !price.IsPositive() {
		return
	}
	t.prevEntry = now
	res, err := t.exec.Entry(ctx, side, price, t.Config.PositionUnit)
	if err != nil {
		t.logger.Error("[%s] entry %s: %v", t.Name, side, err)
		return
	}
	if res.Skipped {
		t.logger.Debug("[%s] entry %s skipped: margin", t.Name, side)
		return
	}
	if res.Position != nil && t.ledger.Add(res.Position) {
		t.reporter.Entry(t.Name, res.Position)
	}
}

func (t *Trader) closePosition(ctx context.Context, p *models.Position) {
	res, err := t.exec.Close(ctx, p)
	if err != nil {
		t.logger.Error("[%s] %v", t.Name, err)
		return
	}
	if res.OrderID != 0 {
		t.closing[res.OrderID] = t.now()
	}
	t.settle(ctx, res.Settled)
}

func (t *Trader) closeSide(ctx context.Context, side string) {
	ps := t.ledger.BySide(side)
	if len(ps) == 0 {
		return
	}
	res, err := t.exec.CloseBulk(ctx, side, ps)
	if err != nil {
		if !errors.Is(err, order.ErrNoPositions) {
			t.logger.Error("[%s] %v", t.Name, err)
		}
		return
	}
	if res.OrderID != 0 {
		t.closing[res.OrderID] = t.now()
	}
	t.settle(ctx, res.Settled)
}

// settle applies synchronously filled closes.
func (t *Trader) settle(ctx context.Context, ps []*models.Position) {
	for _, p := range ps {
		if removed, ok := t.ledger.Remove(p.ID); ok {
			t.record(ctx, removed)
		}
	}
}

// record books a closed position exactly once.
func (t *Trader) record(ctx context.Context, p *models.Position) {
	t.closedPositions.Put(p.ID, struct{}{})
	t.stats.Record(p.LossGain)
	t.prevEntry = time.Time{}
	metrics.RecordTrade(t.Name, p.Side, p.LossGain.IsPositive(), p.LossGain.InexactFloat64())
	t.reporter.Close(t.Name, p, t.stats, t.balance(ctx), t.now())
}
