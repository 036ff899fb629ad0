package chart

import (
	"fmt"
	"math"
)

// CandleKind selects how a candle absorbs ticks.
type CandleKind uint8

const (
	// KindRaw candles copy the tick price into Close.
	KindRaw CandleKind = iota
	// KindSmoothed candles keep a running average of open, high, low and close.
	KindSmoothed
)

func (k CandleKind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindSmoothed:
		return "smoothed"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Candle is one bucket of OHLC prices. Prices are integer yen held in float64
// so that smoothed closes can carry fractions.
type Candle struct {
	Open  float64    `json:"open"`
	High  float64    `json:"high"`
	Low   float64    `json:"low"`
	Close float64    `json:"close"`
	Kind  CandleKind `json:"kind"`
}

var updaters = [...]func(c *Candle, price float64){
	KindRaw: func(c *Candle, price float64) {
		c.High = math.Max(c.High, price)
		c.Low = math.Min(c.Low, price)
		c.Close = price
	},
	KindSmoothed: func(c *Candle, price float64) {
		c.High = math.Max(c.High, price)
		c.Low = math.Min(c.Low, price)
		c.Close = (c.High + c.Low + c.Open + c.Close) / 4
	},
}

// NewCandle opens a raw candle at price.
func NewCandle(price float64) *Candle {
	p := math.Trunc(price)
	return &Candle{Open: p, High: p, Low: p, Close: p, Kind: KindRaw}
}

// NewSmoothedCandle opens a smoothed candle at the midpoint of prev's body.
func NewSmoothedCandle(prev *Candle) *Candle {
	p := math.Trunc((prev.Open + prev.Close) / 2)
	return &Candle{Open: p, High: p, Low: p, Close: p, Kind: KindSmoothed}
}

// Update folds a tick price into the candle.
func (c *Candle) Update(price float64) {
	updaters[c.Kind](c, math.Trunc(price))
}

// IsUp reports whether the candle closed above its open.
func (c *Candle) IsUp() bool { return c.Close > c.Open }

// IsDown reports whether the candle closed below its open.
func (c *Candle) IsDown() bool { return c.Close < c.Open }

// BodyRate returns (close-open)/open.
func (c *Candle) BodyRate() float64 {
	if c.Open == 0 {
		return 0
	}
	return (c.Close - c.Open) / c.Open
}

// Arrow renders the direction as a single rune, used in compact chart logs.
func (c *Candle) Arrow() string {
	switch {
	case c.IsUp():
		return "↑"
	case c.IsDown():
		return "↓"
	}
	return "→"
}

func (c *Candle) String() string {
	return fmt.Sprintf("O[%.0f] H[%.0f] L[%.0f] C[%.0f]", c.Open, c.High, c.Low, c.Close)
}
