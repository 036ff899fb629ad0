package position

// Recent remembers up to Cap ids with a value each, forgetting the oldest
// insert first. Traders use it to remember ids that are already finished so
// late or replayed events cannot resurrect them.
type Recent[V any] struct {
	Cap   int
	vals  map[int64]V
	order []int64
}

// NewRecent returns an empty set bounded to capacity ids.
func NewRecent[V any](capacity int) *Recent[V] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Recent[V]{Cap: capacity, vals: make(map[int64]V)}
}

// Put stores v for id. An existing id keeps its age.
func (r *Recent[V]) Put(id int64, v V) {
	if _, ok := r.vals[id]; !ok {
		r.order = append(r.order, id)
	}
	r.vals[id] = v
	for len(r.order) > r.Cap {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.vals, oldest)
	}
}

// Get returns the value stored for id.
func (r *Recent[V]) Get(id int64) (V, bool) {
	v, ok := r.vals[id]
	return v, ok
}

// Has reports whether id is remembered.
func (r *Recent[V]) Has(id int64) bool {
	_, ok := r.vals[id]
	return ok
}

// Take returns and forgets the value stored for id.
func (r *Recent[V]) Take(id int64) (V, bool) {
	v, ok := r.vals[id]
	if !ok {
		return v, false
	}
	delete(r.vals, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return v, true
}

// Len returns the number of remembered ids.
func (r *Recent[V]) Len() int { return len(r.vals) }
