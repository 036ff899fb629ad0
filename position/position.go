package position

import (
	"github.com/shopspring/decimal"

	"gmocoin-bot/models"
)

// Ledger holds the open positions of one bot in insertion order. It is owned
// by a single goroutine and does no locking.
type Ledger struct {
	order []int64
	byID  map[int64]*models.Position
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{byID: make(map[int64]*models.Position)}
}

// Len returns the number of open positions.
func (l *Ledger) Len() int { return len(l.order) }

// Add inserts p unless a position with the same id is already present.
func (l *Ledger) Add(p *models.Position) bool {
	if p == nil {
		return false
	}
	if _, ok := l.byID[p.ID]; ok {
		return false
	}
	l.byID[p.ID] = p
	l.order = append(l.order, p.ID)
	return true
}

// Get looks a position up by id.
func (l *Ledger) Get(id int64) (*models.Position, bool) {
	p, ok := l.byID[id]
	return p, ok
}

// Remove deletes and returns the position with id.
func (l *Ledger) Remove(id int64) (*models.Position, bool) {
	p, ok := l.byID[id]
	if !ok {
		return nil, false
	}
	delete(l.byID, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Resize sets the size of a position after a partial settlement. A missing
// id is a no-op.
func (l *Ledger) Resize(id int64, size decimal.Decimal) bool {
	p, ok := l.byID[id]
	if !ok {
		return false
	}
	p.Size = size
	return true
}

// All returns the positions oldest first.
func (l *Ledger) All() []*models.Position {
	out := make([]*models.Position, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

// BySide returns the positions of one side, oldest first.
func (l *Ledger) BySide(side string) []*models.Position {
	var out []*models.Position
	for _, id := range l.order {
		if p := l.byID[id]; p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// Replace swaps the contents for ps, dropping duplicate ids.
func (l *Ledger) Replace(ps []*models.Position) {
	l.order = l.order[:0]
	l.byID = make(map[int64]*models.Position, len(ps))
	for _, p := range ps {
		l.Add(p)
	}
}

// Clear drops every position.
func (l *Ledger) Clear() { l.Replace(nil) }

// Mark updates every position to the last price.
func (l *Ledger) Mark(last decimal.Decimal) {
	for _, id := range l.order {
		l.byID[id].Update(last)
	}
}

// Snapshots copies the positions for status reporting.
func (l *Ledger) Snapshots() []models.PositionSnapshot {
	out := make([]models.PositionSnapshot, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id].Snapshot())
	}
	return out
}
