// Package trend classifies the short-term direction of a chart.
package trend

import (
	"gmocoin-bot/chart"
	"gmocoin-bot/indicators"
)

// Signal is the outcome of a trend check.
type Signal int

const (
	None Signal = iota
	Up
	Down
)

func (s Signal) String() string {
	switch s {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return "NONE"
	}
}

// Source is the read side of a chart that checkers consume.
type Source interface {
	Tail(n int) []chart.Candle
	Indicator(period int) float64
}

// Checker is a stateless classifier; all state lives in the Source.
type Checker interface {
	Check(src Source) Signal
	Name() string
}

// DirectionRun reports Up when the last CheckLength smoothed candles all rose
// and Down when they all fell.
type DirectionRun struct {
	// CoolTime is the warm-up, in buckets, before any signal is produced.
	CoolTime    int
	CheckLength int
	// RateThreshold enables the fast path on the previous candle's body rate
	// when positive.
	RateThreshold float64
}

// NewDirectionRun returns a checker with the usual defaults.
func NewDirectionRun() *DirectionRun {
	return &DirectionRun{CoolTime: 5, CheckLength: 3}
}

func (d *DirectionRun) Name() string { return "direction_run" }

func (d *DirectionRun) Check(src Source) Signal {
	need := max(d.CoolTime, d.CheckLength, 1)
	tail := src.Tail(max(need, 2))
	if len(tail) < need {
		return None
	}

	if d.RateThreshold > 0 && len(tail) >= 2 {
		prev := tail[len(tail)-2]
		rate := prev.BodyRate()
		switch {
		case rate > d.RateThreshold:
			return Up
		case -rate > d.RateThreshold:
			return Down
		}
	}

	run := tail[len(tail)-max(d.CheckLength, 1):]
	switch {
	case all(run, (*chart.Candle).IsUp):
		return Up
	case all(run, (*chart.Candle).IsDown):
		return Down
	default:
		return None
	}
}

func all(candles []chart.Candle, pred func(*chart.Candle) bool) bool {
	for i := range candles {
		if !pred(&candles[i]) {
			return false
		}
	}
	return true
}

// MomentumGated confirms a direction run with the momentum statistic: Up
// needs momentum >= Th1 and Down needs momentum <= Th2.
type MomentumGated struct {
	Base   DirectionRun
	Period int
	Th1    float64
	Th2    float64
}

// NewMomentumGated returns a gated checker over the default direction run.
func NewMomentumGated(period int, th1, th2 float64) *MomentumGated {
	return &MomentumGated{Base: *NewDirectionRun(), Period: period, Th1: th1, Th2: th2}
}

func (m *MomentumGated) Name() string { return "momentum_gated" }

func (m *MomentumGated) Check(src Source) Signal {
	momentum := src.Indicator(m.Period)
	if momentum == indicators.Undefined {
		return None
	}
	switch m.Base.Check(src) {
	case Up:
		if momentum >= m.Th1 {
			return Up
		}
	case Down:
		if momentum <= m.Th2 {
			return Down
		}
	}
	return None
}
