package indicators

// Undefined is the value reported before the window holds enough bars.
const Undefined = -1.0

// Window is the view of a candle series the momentum engine reads. Bar(i)
// accepts negative indexes counted from the newest bar.
type Window interface {
	Len() int
	Bar(i int) (open, close float64)
}

// Momentum is an incrementally maintained RSI: the share of average gains in
// average gains plus losses over a trailing window, scaled to 0..100. Averages
// are Wilder-smoothed with weight (period-1)/period.
//
// Momentum is not safe for concurrent use; the owning chart serialises access.
type Momentum struct {
	period  int
	gainAvg float64
	lossAvg float64
	seeded  bool
	steps   int
	value   float64
}

// NewMomentum creates an engine for the given period.
func NewMomentum(period int) *Momentum {
	if period <= 0 {
		period = 14
	}
	return &Momentum{period: period, value: Undefined}
}

// Period returns the configured window length.
func (m *Momentum) Period() int { return m.period }

// Value returns the latest statistic or Undefined.
func (m *Momentum) Value() float64 { return m.value }

// Averages returns the current smoothed gain and loss averages.
func (m *Momentum) Averages() (gain, loss float64) { return m.gainAvg, m.lossAvg }

// Steps returns how many incremental updates ran since the seed.
func (m *Momentum) Steps() int { return m.steps }

// OnRollover advances the statistic after w gained a new bar. It must be
// called once per new bucket, not per tick.
func (m *Momentum) OnRollover(w Window) {
	n := w.Len()
	switch {
	case n < m.period:
		return
	case !m.seeded:
		m.seed(w)
	default:
		// the newest bar was just opened; the one before it is closed
		o, c := w.Bar(-2)
		m.step(o, c)
	}
}

func (m *Momentum) seed(w Window) {
	var gain, loss float64
	for i := w.Len() - m.period; i < w.Len(); i++ {
		o, c := w.Bar(i)
		switch {
		case c > o:
			gain += c - o
		case c < o:
			loss += o - c
		}
	}
	p := float64(m.period)
	m.gainAvg = gain / p
	m.lossAvg = loss / p
	m.seeded = true
	m.refresh()
}

func (m *Momentum) step(o, c float64) {
	p := float64(m.period)
	gain := m.gainAvg * (p - 1)
	loss := m.lossAvg * (p - 1)
	switch {
	case c > o:
		gain += c - o
	case c < o:
		loss += o - c
	}
	m.gainAvg = gain / p
	m.lossAvg = loss / p
	m.steps++
	m.refresh()
}

func (m *Momentum) refresh() {
	if total := m.gainAvg + m.lossAvg; total > 0 {
		m.value = m.gainAvg / total * 100
	}
}

// BatchRSI computes the same ratio over the newest period bars of w without
// smoothing. It returns Undefined when w is too short or flat.
func BatchRSI(w Window, period int) float64 {
	if period <= 0 || w.Len() < period {
		return Undefined
	}
	var gain, loss float64
	for i := w.Len() - period; i < w.Len(); i++ {
		o, c := w.Bar(i)
		switch {
		case c > o:
			gain += c - o
		case c < o:
			loss += o - c
		}
	}
	if gain+loss == 0 {
		return Undefined
	}
	return gain / (gain + loss) * 100
}
