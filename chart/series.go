package chart

import "time"

// Series is a bounded mapping from bucket time to candle with strictly
// increasing keys. Inserting past maxLength evicts the oldest bucket.
type Series struct {
	maxLength int
	keys      []time.Time
	head      int
	candles   map[int64]*Candle
	// created counts every bucket ever inserted, evicted ones included.
	created int
}

// NewSeries returns an empty series holding at most maxLength buckets.
func NewSeries(maxLength int) *Series {
	if maxLength <= 0 {
		maxLength = 1
	}
	return &Series{
		maxLength: maxLength,
		candles:   make(map[int64]*Candle, maxLength+1),
	}
}

// Len returns the number of retained buckets.
func (s *Series) Len() int { return len(s.keys) - s.head }

// MaxLength returns the retention bound.
func (s *Series) MaxLength() int { return s.maxLength }

// Created returns the lifetime count of buckets inserted.
func (s *Series) Created() int { return s.created }

// Get returns the candle for bucket, if retained.
func (s *Series) Get(bucket time.Time) (*Candle, bool) {
	c, ok := s.candles[bucket.UnixNano()]
	return c, ok
}

// Newest returns the most recent bucket key; ok is false on an empty series.
func (s *Series) Newest() (time.Time, bool) {
	if s.Len() == 0 {
		return time.Time{}, false
	}
	return s.keys[len(s.keys)-1], true
}

// Oldest returns the oldest retained bucket key.
func (s *Series) Oldest() (time.Time, bool) {
	if s.Len() == 0 {
		return time.Time{}, false
	}
	return s.keys[s.head], true
}

// Last returns the newest candle or nil.
func (s *Series) Last() *Candle {
	_, c, ok := s.At(-1)
	if !ok {
		return nil
	}
	return c
}

// At returns the i-th bucket. Negative i counts from the newest (-1 is newest).
func (s *Series) At(i int) (time.Time, *Candle, bool) {
	n := s.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return time.Time{}, nil, false
	}
	k := s.keys[s.head+i]
	return k, s.candles[k.UnixNano()], true
}

// Bar exposes the body of the i-th candle to the momentum engine.
func (s *Series) Bar(i int) (float64, float64) {
	_, c, ok := s.At(i)
	if !ok {
		return 0, 0
	}
	return c.Open, c.Close
}

// Range returns copies of the candles between positions from and to, both
// inclusive, with negative indexes counted from the newest. If the requested
// span is not shorter than the series, the whole series is returned.
func (s *Series) Range(from, to int) []Candle {
	n := s.Len()
	if n == 0 {
		return nil
	}
	if to-from >= n {
		from, to = 0, -1
	}
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if from < 0 {
		from = 0
	}
	if to >= n {
		to = n - 1
	}
	if from > to {
		return nil
	}
	out := make([]Candle, 0, to-from+1)
	for i := from; i <= to; i++ {
		_, c, _ := s.At(i)
		out = append(out, *c)
	}
	return out
}

// Keys returns the retained bucket keys, oldest first.
func (s *Series) Keys() []time.Time {
	out := make([]time.Time, s.Len())
	copy(out, s.keys[s.head:])
	return out
}

// Append inserts a new newest bucket. Keys not after the newest are refused.
func (s *Series) Append(bucket time.Time, c *Candle) bool {
	if newest, ok := s.Newest(); ok && !bucket.After(newest) {
		return false
	}
	s.keys = append(s.keys, bucket)
	s.candles[bucket.UnixNano()] = c
	s.created++
	if s.Len() > s.maxLength {
		s.evictOldest()
	}
	return true
}

func (s *Series) evictOldest() {
	k := s.keys[s.head]
	delete(s.candles, k.UnixNano())
	s.keys[s.head] = time.Time{}
	s.head++
	// compact once the dead prefix dominates the backing array
	if s.head > s.maxLength {
		n := copy(s.keys, s.keys[s.head:])
		s.keys = s.keys[:n]
		s.head = 0
	}
}
