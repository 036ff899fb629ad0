package chart

import (
	"sync"
	"time"

	"gmocoin-bot/indicators"
)

// Tick is one trade print.
type Tick struct {
	Timestamp time.Time
	Price     float64
}

// Snapshot is a point-in-time summary used by status reporting.
type Snapshot struct {
	Bucket    time.Time `json:"bucket"`
	Last      *Candle   `json:"last,omitempty"`
	Smoothed  int       `json:"smoothed"`
	Raw       int       `json:"raw"`
	Momentum  float64   `json:"momentum"`
	MaxLength int       `json:"maxLength"`
}

// Chart turns trade ticks into a raw and a smoothed candle series and keeps a
// momentum engine on the raw one. Updates come from a single writer; readers
// may run concurrently.
type Chart struct {
	mu       sync.RWMutex
	period   time.Duration
	raw      *Series
	smoothed *Series
	momentum *indicators.Momentum
}

// New creates a chart bucketing ticks by period.
func New(period time.Duration, maxLength, momentumPeriod int) *Chart {
	if period <= 0 {
		period = time.Minute
	}
	return &Chart{
		period:   period,
		raw:      NewSeries(maxLength),
		smoothed: NewSeries(maxLength),
		momentum: indicators.NewMomentum(momentumPeriod),
	}
}

// Period returns the bucket width.
func (c *Chart) Period() time.Duration { return c.period }

// Bucket maps a timestamp to its bucket key.
func (c *Chart) Bucket(ts time.Time) time.Time { return ts.Round(c.period) }

// Update folds a tick into both series. A new raw bucket advances the
// momentum engine.
func (c *Chart) Update(t Tick) {
	bucket := c.Bucket(t.Timestamp)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.updateSmoothed(bucket, t.Price)
	if c.updateRaw(bucket, t.Price) {
		c.momentum.OnRollover(c.raw)
	}
}

func (c *Chart) updateSmoothed(bucket time.Time, price float64) {
	if candle, ok := c.smoothed.Get(bucket); ok {
		candle.Update(price)
		return
	}
	// the first two buckets are plain candles so the smoothed open does not
	// start from a single tick
	if c.smoothed.Created() < 2 {
		c.smoothed.Append(bucket, NewCandle(price))
		return
	}
	prev := c.smoothed.Last()
	if prev == nil {
		c.smoothed.Append(bucket, NewCandle(price))
		return
	}
	c.smoothed.Append(bucket, NewSmoothedCandle(prev))
}

// updateRaw reports whether a new bucket was opened.
func (c *Chart) updateRaw(bucket time.Time, price float64) bool {
	if candle, ok := c.raw.Get(bucket); ok {
		candle.Update(price)
		return false
	}
	return c.raw.Append(bucket, NewCandle(price))
}

// CandlesByIndex returns smoothed candles from..to inclusive; negative
// indexes count from the newest.
func (c *Chart) CandlesByIndex(from, to int) []Candle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.smoothed.Range(from, to)
}

// Tail returns up to n newest smoothed candles, oldest first.
func (c *Chart) Tail(n int) []Candle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l := c.smoothed.Len()
	if n <= 0 || l == 0 {
		return nil
	}
	if n > l {
		n = l
	}
	return c.smoothed.Range(l-n, l-1)
}

// LastCandle returns a copy of the newest smoothed candle.
func (c *Chart) LastCandle() (Candle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	last := c.smoothed.Last()
	if last == nil {
		return Candle{}, false
	}
	return *last, true
}

// Indicator returns the momentum value for period. The engine answers for its
// own period; other periods are computed over the smoothed series. The
// result is indicators.Undefined when not enough candles exist.
func (c *Chart) Indicator(period int) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if period == c.momentum.Period() {
		return c.momentum.Value()
	}
	return indicators.BatchRSI(c.smoothed, period)
}

// MomentumPeriod returns the engine period.
func (c *Chart) MomentumPeriod() int { return c.momentum.Period() }

// SmoothedLen returns the number of retained smoothed buckets.
func (c *Chart) SmoothedLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.smoothed.Len()
}

// RawLen returns the number of retained raw buckets.
func (c *Chart) RawLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.raw.Len()
}

// Arrows renders the smoothed directions of the last n candles.
func (c *Chart) Arrows(n int) string {
	var s string
	for _, candle := range c.Tail(n) {
		s += candle.Arrow()
	}
	return s
}

// Snapshot summarises the chart.
func (c *Chart) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Snapshot{
		Smoothed:  c.smoothed.Len(),
		Raw:       c.raw.Len(),
		Momentum:  c.momentum.Value(),
		MaxLength: c.smoothed.MaxLength(),
	}
	if k, last, ok := c.smoothed.At(-1); ok {
		cp := *last
		s.Bucket = k
		s.Last = &cp
	}
	return s
}
