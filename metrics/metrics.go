// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmocoin_bot_trades_total",
			Help: "Closed trades by side and result",
		},
		[]string{"bot", "side", "result"},
	)

	realizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gmocoin_bot_realized_pnl",
			Help: "Realized profit and loss in JPY",
		},
		[]string{"bot"},
	)

	openPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gmocoin_bot_open_positions",
			Help: "Open positions in the ledger",
		},
		[]string{"bot"},
	)

	pendingOrders = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gmocoin_bot_pending_orders",
			Help: "Entry orders awaiting execution",
		},
		[]string{"bot"},
	)

	momentumValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gmocoin_bot_momentum_value",
			Help: "Latest momentum statistic, -1 while undefined",
		},
	)

	trendSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmocoin_bot_trend_signals_total",
			Help: "Trend checks by outcome",
		},
		[]string{"bot", "signal"},
	)

	wsSubscribe = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmocoin_bot_ws_subscribe_total",
			Help: "Websocket subscribe attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	orderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmocoin_bot_order_errors_total",
			Help: "Rejected or failed exchange calls",
		},
		[]string{"op"},
	)

	botState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gmocoin_bot_state",
			Help: "Bot lifecycle state (0 initializing, 1 initialized, 2 running, 3 paused)",
		},
		[]string{"bot"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(realizedPnL)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(pendingOrders)
	prometheus.MustRegister(momentumValue)
	prometheus.MustRegister(trendSignals)
	prometheus.MustRegister(wsSubscribe)
	prometheus.MustRegister(orderErrors)
	prometheus.MustRegister(botState)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// RecordTrade counts a closed trade and sets the running realized PnL.
func RecordTrade(bot, side string, win bool, realized float64) {
	result := "loss"
	if win {
		result = "win"
	}
	tradesTotal.WithLabelValues(bot, side, result).Inc()
	realizedPnL.WithLabelValues(bot).Set(realized)
}

// SetLedger publishes the ledger sizes of a bot.
func SetLedger(bot string, positions, pending int) {
	openPositions.WithLabelValues(bot).Set(float64(positions))
	pendingOrders.WithLabelValues(bot).Set(float64(pending))
}

// SetMomentum publishes the chart momentum.
func SetMomentum(v float64) { momentumValue.Set(v) }

// RecordSignal counts a trend check outcome.
func RecordSignal(bot, signal string) { trendSignals.WithLabelValues(bot, signal).Inc() }

// RecordSubscribe counts a subscribe attempt.
func RecordSubscribe(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	wsSubscribe.WithLabelValues(channel, result).Inc()
}

// RecordOrderError counts a failed exchange call.
func RecordOrderError(op string) { orderErrors.WithLabelValues(op).Inc() }

// SetState publishes the bot state.
func SetState(bot string, state int) { botState.WithLabelValues(bot).Set(float64(state)) }
