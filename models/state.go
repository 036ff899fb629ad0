package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BotState is the lifecycle of a trading bot.
type BotState int32

const (
	StateInitializing BotState = iota
	StateInitialized
	StateRunning
	StatePaused
)

func (s BotState) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StateInitialized:
		return "Initialized"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

var transitions = map[BotState][]BotState{
	StateInitializing: {StateInitialized},
	StateInitialized:  {StateRunning, StatePaused},
	StateRunning:      {StatePaused},
	StatePaused:       {StateRunning},
}

// CanTransition reports whether s may move to next.
func (s BotState) CanTransition(next BotState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Stats accumulates realized results of one bot.
type Stats struct {
	WinNum      int             `json:"winNum"`
	TradeNum    int             `json:"tradeNum"`
	ProfitSum   decimal.Decimal `json:"profitSum"`
	InitBalance decimal.Decimal `json:"initBalance"`
}

// Record adds one closed trade.
func (s *Stats) Record(lossGain decimal.Decimal) {
	if lossGain.IsPositive() {
		s.WinNum++
	}
	s.TradeNum++
	s.ProfitSum = s.ProfitSum.Add(lossGain)
}

// WinRate is wins over trades, 0 before the first trade.
func (s Stats) WinRate() float64 {
	if s.TradeNum == 0 {
		return 0
	}
	return float64(s.WinNum) / float64(s.TradeNum)
}

// ProfitRate is realized profit over the initial balance.
func (s Stats) ProfitRate() float64 {
	if s.InitBalance.IsZero() {
		return 0
	}
	return s.ProfitSum.Div(s.InitBalance).InexactFloat64()
}

// PositionSnapshot is the status view of a position.
type PositionSnapshot struct {
	ID           int64     `json:"id"`
	Side         string    `json:"side"`
	Size         string    `json:"size"`
	EntryPrice   string    `json:"entryPrice"`
	CurrentPrice string    `json:"currentPrice"`
	ProfitRate   float64   `json:"profitRate"`
	LossGain     string    `json:"lossGain"`
	OpenedAt     time.Time `json:"openedAt"`
}

// Snapshot copies p for status reporting.
func (p *Position) Snapshot() PositionSnapshot {
	return PositionSnapshot{
		ID:           p.ID,
		Side:         p.Side,
		Size:         p.Size.String(),
		EntryPrice:   p.EntryPrice.StringFixed(0),
		CurrentPrice: p.CurrentPrice.StringFixed(0),
		ProfitRate:   p.ProfitRate,
		LossGain:     p.LossGain.StringFixed(0),
		OpenedAt:     p.Timestamp,
	}
}

// BotSnapshot is the status view of one bot.
type BotSnapshot struct {
	Name       string             `json:"name"`
	Symbol     string             `json:"symbol"`
	State      string             `json:"state"`
	Simulated  bool               `json:"simulated"`
	Pending    int                `json:"pendingOrders"`
	Positions  []PositionSnapshot `json:"positions"`
	Stats      Stats              `json:"stats"`
	WinRate    float64            `json:"winRate"`
	ProfitRate float64            `json:"profitRate"`
	LastSignal string             `json:"lastSignal"`
	PrevEntry  *time.Time         `json:"prevEntry,omitempty"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}
