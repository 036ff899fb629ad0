package position

import (
	"sort"
	"time"
)

// PendingOrders is a set of order ids with the time each was first seen.
type PendingOrders struct {
	since map[int64]time.Time
}

// NewPendingOrders returns an empty set.
func NewPendingOrders() *PendingOrders {
	return &PendingOrders{since: make(map[int64]time.Time)}
}

// Add records id at now. Re-adding keeps the original time.
func (p *PendingOrders) Add(id int64, now time.Time) bool {
	if _, ok := p.since[id]; ok {
		return false
	}
	p.since[id] = now
	return true
}

// Remove drops id; removing an unknown id is a no-op.
func (p *PendingOrders) Remove(id int64) bool {
	if _, ok := p.since[id]; !ok {
		return false
	}
	delete(p.since, id)
	return true
}

// Has reports whether id is pending.
func (p *PendingOrders) Has(id int64) bool {
	_, ok := p.since[id]
	return ok
}

// Len returns the number of pending ids.
func (p *PendingOrders) Len() int { return len(p.since) }

// IDs returns the ids oldest first, ties broken by id.
func (p *PendingOrders) IDs() []int64 {
	ids := make([]int64, 0, len(p.since))
	for id := range p.since {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := p.since[ids[i]], p.since[ids[j]]
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.Before(tj)
	})
	return ids
}

// OlderThan returns the ids seen more than limit before now, oldest first.
func (p *PendingOrders) OlderThan(now time.Time, limit time.Duration) []int64 {
	var out []int64
	for _, id := range p.IDs() {
		if now.Sub(p.since[id]) > limit {
			out = append(out, id)
		}
	}
	return out
}

// Replace resets the set to ids, all stamped now.
func (p *PendingOrders) Replace(ids []int64, now time.Time) {
	p.since = make(map[int64]time.Time, len(ids))
	for _, id := range ids {
		p.since[id] = now
	}
}
