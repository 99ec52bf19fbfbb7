package records

import "sync"

// Keyed is a record with a stable identity.
type Keyed interface {
	Key() string
}

// Mirror is the in-process copy of a store listing. Rows keep the store order
// except for prepended creations.
type Mirror[T Keyed] struct {
	mu       sync.RWMutex
	rows     []T
	inflight int
}

// Reset replaces the cache wholesale.
func (m *Mirror[T]) Reset(rows []T) {
	cp := make([]T, len(rows))
	copy(cp, rows)

	m.mu.Lock()
	m.rows = cp
	m.mu.Unlock()
}

// Prepend inserts row at the front.
func (m *Mirror[T]) Prepend(row T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]T, 0, len(m.rows)+1)
	rows = append(rows, row)
	m.rows = append(rows, m.rows...)
}

// Replace swaps the row sharing row's identity. merge, when set, receives the
// cached row and the replacement and returns what is stored.
func (m *Mirror[T]) Replace(row T, merge func(prev, next T) T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rows {
		if m.rows[i].Key() == row.Key() {
			if merge != nil {
				row = merge(m.rows[i], row)
			}
			m.rows[i] = row
			return true
		}
	}
	return false
}

// Remove drops the row with the given identity.
func (m *Mirror[T]) Remove(id string) bool {
	removed := m.RemoveWhere(func(row T) bool { return row.Key() == id })
	return removed > 0
}

// RemoveWhere drops every row matching pred and returns how many were dropped.
func (m *Mirror[T]) RemoveWhere(pred func(T) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.rows[:0:0]
	for _, row := range m.rows {
		if !pred(row) {
			kept = append(kept, row)
		}
	}
	removed := len(m.rows) - len(kept)
	m.rows = kept
	return removed
}

// Snapshot returns a copy of the cached rows.
func (m *Mirror[T]) Snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, len(m.rows))
	copy(out, m.rows)
	return out
}

// Get returns the cached row with the given identity.
func (m *Mirror[T]) Get(id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.rows {
		if row.Key() == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of cached rows.
func (m *Mirror[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Mirror[T]) beginLoad() {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()
}

func (m *Mirror[T]) endLoad() {
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
}

// Loading reports whether a list request is in flight.
func (m *Mirror[T]) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflight > 0
}
