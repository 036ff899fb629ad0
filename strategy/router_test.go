package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmocoin-bot/chart"
	"gmocoin-bot/logging"
)

type recordingChart struct{ ticks []chart.Tick }

func (c *recordingChart) Update(t chart.Tick)   { c.ticks = append(c.ticks, t) }
func (c *recordingChart) Indicator(int) float64 { return -1 }
func (c *recordingChart) MomentumPeriod() int   { return 14 }

func TestRouterTradesFeedChart(t *testing.T) {
	c := &recordingChart{}
	r := NewRouter(c, logging.Nop())

	r.OnTrade([]byte(`{"channel":"trades","price":"5000123.9","side":"BUY","size":"0.01","symbol":"BTC_JPY","timestamp":"2024-05-01T12:00:01.123Z"}`))
	r.OnTrade([]byte(`{"price":"","timestamp":"2024-05-01T12:00:01Z"}`))
	r.OnTrade([]byte(`not json`))

	require.Len(t, c.ticks, 1)
	assert.Equal(t, 5000123.0, c.ticks[0].Price)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 1, 123000000, time.UTC), c.ticks[0].Timestamp.UTC())
}

func TestRouterDispatchesBySymbol(t *testing.T) {
	btc, _, _ := newTrader(t, botConfig(), &fakeExec{})
	cfg := botConfig()
	cfg.Name, cfg.Symbol = "eth", "ETH_JPY"
	eth, _, _ := newTrader(t, cfg, &fakeExec{})
	r := NewRouter(&recordingChart{}, logging.Nop(), btc, eth)

	r.OnOrderEvent([]byte(`{"channel":"orderEvents","msgType":"NOR","orderId":11,"symbol":"BTC_JPY","settleType":"OPEN"}`))
	r.OnPositionEvent([]byte(`{"channel":"positionEvents","msgType":"OPR","positionId":3,"symbol":"ETH_JPY","side":"BUY","size":"1","price":"300000","timestamp":"2024-05-01T12:00:00Z"}`))
	r.OnExecutionEvent([]byte(`{"channel":"executionEvents","orderId":11,"symbol":"BTC_JPY","settleType":"OPEN"}`))
	r.OnTicker([]byte(`{broken`))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go btc.Run(ctx)
	go eth.Run(ctx)

	assert.Eventually(t, func() bool {
		snaps := r.Snapshots()
		return len(snaps) == 2 && len(snaps[1].Positions) == 1
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	r.Broadcast(func(_ context.Context, tr *Trader) {
		if tr == btc {
			close(done)
		}
	})
	<-done
	assert.Eventually(t, func() bool { return r.Snapshots()[0].Pending == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, r.Snapshots()[1].Stats.TradeNum)
}
