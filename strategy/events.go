package strategy

import (
	"context"

	"gmocoin-bot/internal/constants"
	"gmocoin-bot/internal/utils"
	"gmocoin-bot/models"
)

// OnOrderEvent tracks entry orders while they rest on the book and close
// orders while they are in flight. A new-order event for an id that already
// filled or was canceled is ignored.
func (t *Trader) OnOrderEvent(_ context.Context, e models.OrderEvent) {
	switch e.SettleType {
	case constants.SettleOpen:
		if e.MsgType == constants.MsgNewOrder {
			if t.doneOrders.Has(e.OrderID) {
				t.logger.Debug("[%s] late order event for finished order %d", t.Name, e.OrderID)
				return
			}
			t.pending.Add(e.OrderID, t.now())
		} else {
			t.pending.Remove(e.OrderID)
			t.doneOrders.Put(e.OrderID, struct{}{})
		}
	case constants.SettleClose:
		if e.MsgType == constants.MsgNewOrder {
			if t.doneOrders.Has(e.OrderID) {
				return
			}
			t.closing[e.OrderID] = t.now()
		} else {
			delete(t.closing, e.OrderID)
			t.doneOrders.Put(e.OrderID, struct{}{})
		}
	}
}

// OnPositionEvent inserts opened positions and resizes partially settled
// ones. Closes are booked from execution events; an open for a position whose
// close already arrived books that close instead of inserting it.
func (t *Trader) OnPositionEvent(ctx context.Context, d models.PositionData) {
	switch d.MsgType {
	case constants.MsgOpenPosition:
		if t.closedPositions.Has(d.PositionID) {
			t.logger.Debug("[%s] open for closed position %d dropped", t.Name, d.PositionID)
			return
		}
		p := models.NewPosition(d)
		if e, ok := t.earlyCloses.Take(d.PositionID); ok {
			t.bookClose(ctx, p, e)
			return
		}
		if t.ledger.Add(p) {
			t.prevEntry = t.now()
			t.reporter.Entry(t.Name, p)
		}
	case constants.MsgUpdatePosition:
		if !t.ledger.Resize(d.PositionID, utils.ParseDecimal(d.Size)) {
			t.logger.Debug("[%s] resize of unknown position %d", t.Name, d.PositionID)
		}
	}
}

// OnExecutionEvent clears filled entry orders and books closed positions.
// A close for a position already booked is dropped so a replayed event cannot
// be counted twice; a close that arrives before its position is held until
// the open event shows up.
func (t *Trader) OnExecutionEvent(ctx context.Context, e models.ExecutionEvent) {
	switch e.SettleType {
	case constants.SettleOpen:
		t.pending.Remove(e.OrderID)
		t.doneOrders.Put(e.OrderID, struct{}{})
	case constants.SettleClose:
		delete(t.closing, e.OrderID)
		t.doneOrders.Put(e.OrderID, struct{}{})
		if t.closedPositions.Has(e.PositionID) {
			t.logger.Debug("[%s] execution for closed position %d dropped", t.Name, e.PositionID)
			return
		}
		p, ok := t.ledger.Remove(e.PositionID)
		if !ok {
			t.logger.Debug("[%s] close for unknown position %d held", t.Name, e.PositionID)
			t.earlyCloses.Put(e.PositionID, e)
			return
		}
		t.bookClose(ctx, p, e)
	}
}

func (t *Trader) bookClose(ctx context.Context, p *models.Position, e models.ExecutionEvent) {
	if e.ExecutionPrice != "" {
		p.CurrentPrice = utils.ParseDecimal(e.ExecutionPrice).Truncate(0)
	}
	p.LossGain = utils.ParseDecimal(e.LossGain)
	t.record(ctx, p)
}

// Closing returns the number of close orders in flight.
func (t *Trader) Closing() int { return len(t.closing) }
