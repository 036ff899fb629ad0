package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPositionUpdateBySide(t *testing.T) {
	long := NewPosition(PositionData{PositionID: 1, Side: "BUY", Size: "0.01", Price: "5000000", Leverage: "4", Timestamp: "2024-01-01T00:00:00.000Z"})
	long.Update(decimal.NewFromFloat(5050000.9))
	assert.Equal(t, "5050000", long.CurrentPrice.String())
	assert.InDelta(t, 0.01, long.ProfitRate, 1e-12)
	assert.Equal(t, "500", long.LossGain.String())

	short := NewPosition(PositionData{PositionID: 2, Side: "SELL", Size: "0.02", Price: "5000000"})
	short.Update(decimal.NewFromInt(5050000))
	assert.InDelta(t, -0.01, short.ProfitRate, 1e-12)
	assert.Equal(t, "-1000", short.LossGain.String())
	assert.Equal(t, 4, short.Leverage)
	assert.Equal(t, "BUY", short.CloseSide())
}

func TestPositionReports(t *testing.T) {
	p := NewPosition(PositionData{PositionID: 7, Side: "BUY", Size: "0.01", Price: "100", Timestamp: "2024-01-01T00:00:00Z"})
	p.Update(decimal.NewFromInt(110))
	now := p.Timestamp.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, p.KeepTime(now))
	assert.Equal(t, "[BUY: 100 -> SELL: 110][KEEP TIME: 1m30s] PnL: +0", p.ExecuteReport(now))
	assert.Contains(t, p.EntryReport(), "id[7]")
	assert.Equal(t, "0.25", p.Margin().String())
}

func TestBotStateTransitions(t *testing.T) {
	assert.True(t, StateInitializing.CanTransition(StateInitialized))
	assert.True(t, StateInitialized.CanTransition(StateRunning))
	assert.True(t, StateRunning.CanTransition(StatePaused))
	assert.True(t, StatePaused.CanTransition(StateRunning))
	assert.False(t, StateRunning.CanTransition(StateInitializing))
	assert.False(t, StatePaused.CanTransition(StateInitialized))
	assert.Equal(t, "Paused", StatePaused.String())
}

func TestStats(t *testing.T) {
	s := Stats{InitBalance: decimal.NewFromInt(1000)}
	assert.Zero(t, s.WinRate())
	s.Record(decimal.NewFromInt(30))
	s.Record(decimal.NewFromInt(-10))
	assert.Equal(t, 1, s.WinNum)
	assert.Equal(t, 2, s.TradeNum)
	assert.InDelta(t, 0.5, s.WinRate(), 1e-12)
	assert.InDelta(t, 0.02, s.ProfitRate(), 1e-12)
}

func TestOrderAge(t *testing.T) {
	o := Order{Timestamp: "2024-01-01T00:00:00.000Z"}
	now := time.Date(2024, 1, 1, 0, 1, 5, 0, time.UTC)
	assert.Equal(t, 65*time.Second, o.Age(now))
	assert.Zero(t, Order{Timestamp: "garbage"}.Age(now))
}
