package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmocoin-bot/logging"
)

func TestPaperBrokerLifecycle(t *testing.T) {
	ctx := context.Background()
	pb := NewPaperBroker("BTC_JPY", d("100000"), 4, logging.Nop())
	assert.True(t, pb.Simulated())

	res, err := pb.Entry(ctx, "BUY", d("1000000"), d("0.1"))
	require.NoError(t, err)
	require.NotNil(t, res.Position)
	p := res.Position
	assert.GreaterOrEqual(t, p.ID, int64(100000))
	assert.LessOrEqual(t, p.ID, int64(999999))
	assert.Equal(t, "75000", pb.Cash().String())

	p.Update(d("1010000"))
	bal, _ := pb.Balance(ctx)
	assert.Equal(t, "101000", bal.String())

	// not enough cash for a second one of three times the size
	res, err = pb.Entry(ctx, "SELL", d("1000000"), d("0.4"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	cr, err := pb.Close(ctx, p)
	require.NoError(t, err)
	require.Len(t, cr.Settled, 1)
	assert.Equal(t, "101000", pb.Cash().String())

	// closing twice settles nothing
	cr, err = pb.Close(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, cr.Settled)
}

func TestPaperBrokerBulkAndRestore(t *testing.T) {
	ctx := context.Background()
	pb := NewPaperBroker("BTC_JPY", d("1000000"), 4, logging.Nop())
	a, _ := pb.Entry(ctx, "SELL", d("100"), d("1"))
	b, _ := pb.Entry(ctx, "SELL", d("100"), d("1"))

	r, err := pb.Restore(ctx)
	require.NoError(t, err)
	assert.Len(t, r.Positions, 2)
	assert.Equal(t, "1000000", r.Balance.String())

	cr, err := pb.CloseBulk(ctx, "SELL", r.Positions)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.OrderID, b.OrderID}, []int64{cr.Settled[0].ID, cr.Settled[1].ID})
	ps, _ := pb.Positions(ctx)
	assert.Empty(t, ps)

	sw, err := pb.Sweep(ctx, []int64{1}, pb.now())
	require.NoError(t, err)
	assert.Empty(t, sw.Canceled)
}
