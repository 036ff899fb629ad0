package strategy

import (
	"context"
	"encoding/json"

	"gmocoin-bot/chart"
	"gmocoin-bot/internal/utils"
	"gmocoin-bot/logging"
	"gmocoin-bot/metrics"
	"gmocoin-bot/models"
)

// ChartWriter receives trade ticks.
type ChartWriter interface {
	Update(t chart.Tick)
	Indicator(period int) float64
	MomentumPeriod() int
}

// Router decodes websocket frames and fans them out. Trades go straight to
// the chart; everything else is submitted to each trader's inbox.
type Router struct {
	Chart   ChartWriter
	Traders []*Trader
	Logger  logging.LoggerInterface
}

// NewRouter wires traders to the shared chart.
func NewRouter(c ChartWriter, logger logging.LoggerInterface, traders ...*Trader) *Router {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Router{Chart: c, Traders: traders, Logger: logger}
}

// OnTrade folds a trades frame into the chart.
func (r *Router) OnTrade(raw []byte) {
	var tr models.Trade
	if err := json.Unmarshal(raw, &tr); err != nil {
		r.Logger.Debug("bad trade frame: %v", err)
		return
	}
	ts, ok := utils.ParseTime(tr.Timestamp)
	price := utils.ParsePrice(tr.Price)
	if !ok || price <= 0 {
		r.Logger.Debug("trade without time or price: %s", string(raw))
		return
	}
	r.Chart.Update(chart.Tick{Timestamp: ts, Price: price})
	metrics.SetMomentum(r.Chart.Indicator(r.Chart.MomentumPeriod()))
}

// OnTicker hands a ticker frame to every trader of its symbol.
func (r *Router) OnTicker(raw []byte) {
	var tk models.Ticker
	if !r.decode(raw, &tk) {
		return
	}
	r.each(tk.Symbol, func(ctx context.Context, t *Trader) { t.OnTicker(ctx, tk) })
}

// OnOrderEvent routes an orderEvents frame.
func (r *Router) OnOrderEvent(raw []byte) {
	var e models.OrderEvent
	if !r.decode(raw, &e) {
		return
	}
	r.each(e.Symbol, func(ctx context.Context, t *Trader) { t.OnOrderEvent(ctx, e) })
}

// OnPositionEvent routes a positionEvents frame.
func (r *Router) OnPositionEvent(raw []byte) {
	var d models.PositionData
	if !r.decode(raw, &d) {
		return
	}
	r.each(d.Symbol, func(ctx context.Context, t *Trader) { t.OnPositionEvent(ctx, d) })
}

// OnExecutionEvent routes an executionEvents frame.
func (r *Router) OnExecutionEvent(raw []byte) {
	var e models.ExecutionEvent
	if !r.decode(raw, &e) {
		return
	}
	r.each(e.Symbol, func(ctx context.Context, t *Trader) { t.OnExecutionEvent(ctx, e) })
}

// Broadcast submits fn to every trader.
func (r *Router) Broadcast(fn func(ctx context.Context, t *Trader)) {
	r.each("", fn)
}

// Snapshots collects the published state of every trader.
func (r *Router) Snapshots() []models.BotSnapshot {
	out := make([]models.BotSnapshot, 0, len(r.Traders))
	for _, t := range r.Traders {
		out = append(out, t.Snapshot())
	}
	return out
}

func (r *Router) decode(raw []byte, v interface{}) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		r.Logger.Debug("bad frame: %v", err)
		return false
	}
	return true
}

// each submits fn to the traders of symbol; an empty symbol matches all.
func (r *Router) each(symbol string, fn func(ctx context.Context, t *Trader)) {
	for _, t := range r.Traders {
		if symbol != "" && t.Config.Symbol != "" && t.Config.Symbol != symbol {
			continue
		}
		t.Submit(func(ctx context.Context) { fn(ctx, t) })
	}
}
