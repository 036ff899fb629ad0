package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gmocoin-bot/logging"
	"gmocoin-bot/models"
)

func TestCloseLine(t *testing.T) {
	opened := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	p := &models.Position{
		ID:           7,
		Side:         "BUY",
		Size:         decimal.RequireFromString("0.01"),
		EntryPrice:   decimal.NewFromInt(100),
		CurrentPrice: decimal.NewFromInt(110),
		LossGain:     decimal.NewFromInt(500),
		Timestamp:    opened,
	}
	stats := models.Stats{WinNum: 1, TradeNum: 2, ProfitSum: decimal.NewFromInt(500), InitBalance: decimal.NewFromInt(100000)}

	line := CloseLine("alpha", p, stats, decimal.NewFromInt(100500), opened.Add(90*time.Second))
	assert.Equal(t, "[alpha] CLOSED [BUY: 100 -> SELL: 110][KEEP TIME: 1m30s] PnL: +500 WIN RATE[50.00%] BALANCE: 100500 PROFIT[+500 0.50%]", line)
}

func TestTableAndStatsLog(t *testing.T) {
	snaps := []models.BotSnapshot{
		{Name: "alpha", State: "Running", Simulated: true, Pending: 1, LastSignal: "UP",
			Stats: models.Stats{TradeNum: 4, WinNum: 3, ProfitSum: decimal.NewFromInt(-20)}, WinRate: 0.75},
		{Name: "beta", State: "Paused"},
	}
	out := Table(snaps)
	assert.Contains(t, out, "BOT STATS")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "paper")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "-20")
	assert.Contains(t, out, "beta")

	var buf bytes.Buffer
	r := New(logging.NewWriterLogger(&buf, logging.INFO))
	r.Stats(snaps)
	assert.Contains(t, buf.String(), "alpha")

	buf.Reset()
	r.Stats(nil)
	assert.Empty(t, buf.String())
}
