package position

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmocoin-bot/models"
)

func pos(id int64, side string) *models.Position {
	return &models.Position{ID: id, Side: side, Size: decimal.RequireFromString("0.01"), EntryPrice: decimal.NewFromInt(100), Leverage: 4}
}

func TestLedgerAddIsIdempotent(t *testing.T) {
	l := NewLedger()
	assert.True(t, l.Add(pos(1, "BUY")))
	assert.False(t, l.Add(pos(1, "BUY")))
	assert.False(t, l.Add(nil))
	assert.Equal(t, 1, l.Len())
}

func TestLedgerRemoveKeepsOrder(t *testing.T) {
	l := NewLedger()
	for i := int64(1); i <= 4; i++ {
		side := "BUY"
		if i%2 == 0 {
			side = "SELL"
		}
		l.Add(pos(i, side))
	}
	p, ok := l.Remove(2)
	require.True(t, ok)
	assert.Equal(t, int64(2), p.ID)

	_, ok = l.Remove(2)
	assert.False(t, ok)

	var ids []int64
	for _, p := range l.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)
	assert.Len(t, l.BySide("BUY"), 2)
	assert.Len(t, l.BySide("SELL"), 1)
}

func TestLedgerResizeAndMark(t *testing.T) {
	l := NewLedger()
	l.Add(pos(1, "BUY"))
	assert.False(t, l.Resize(9, decimal.NewFromInt(1)))
	require.True(t, l.Resize(1, decimal.RequireFromString("0.005")))

	l.Mark(decimal.NewFromInt(110))
	p, _ := l.Get(1)
	assert.Equal(t, "0.05", p.LossGain.String())
	assert.InDelta(t, 0.1, p.ProfitRate, 1e-12)
	require.Len(t, l.Snapshots(), 1)
	assert.Equal(t, "110", l.Snapshots()[0].CurrentPrice)
}

func TestLedgerReplace(t *testing.T) {
	l := NewLedger()
	l.Add(pos(1, "BUY"))
	l.Replace([]*models.Position{pos(5, "SELL"), pos(5, "SELL"), pos(6, "BUY")})
	assert.Equal(t, 2, l.Len())
	_, ok := l.Get(1)
	assert.False(t, ok)
	l.Clear()
	assert.Zero(t, l.Len())
}

func TestPendingOrders(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewPendingOrders()
	assert.True(t, p.Add(10, now))
	assert.True(t, p.Add(11, now.Add(30*time.Second)))
	assert.False(t, p.Add(10, now.Add(50*time.Second)))
	assert.Equal(t, []int64{10, 11}, p.IDs())

	assert.Equal(t, []int64{10}, p.OlderThan(now.Add(61*time.Second), time.Minute))
	assert.Empty(t, p.OlderThan(now.Add(60*time.Second), time.Minute))

	assert.True(t, p.Remove(10))
	assert.False(t, p.Remove(10))
	assert.False(t, p.Has(10))
	assert.Equal(t, 1, p.Len())

	p.Replace([]int64{1, 2, 3}, now)
	assert.Equal(t, []int64{1, 2, 3}, p.IDs())
}

func TestRecentEvictsOldest(t *testing.T) {
	r := NewRecent[string](2)
	r.Put(1, "a")
	r.Put(2, "b")
	r.Put(1, "a2")
	r.Put(3, "c")

	assert.False(t, r.Has(1), "oldest insert is evicted even after an update")
	v, ok := r.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 2, r.Len())

	v, ok = r.Take(3)
	require.True(t, ok)
	assert.Equal(t, "c", v)
	assert.False(t, r.Has(3))
	_, ok = r.Take(3)
	assert.False(t, ok)

	r.Put(4, "d")
	r.Put(5, "e")
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Has(2))
}
