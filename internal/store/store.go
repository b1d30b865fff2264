// Package store holds the current feature collection in memory. The
// collection is replaced wholesale; readers get an immutable snapshot.
package store

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quakewatch/internal/domain"
)

// State is the data lifecycle shown by the dashboard.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateErrorStale State = "error-but-stale"
)

// Snapshot is an immutable view of the store. Stats, buckets and markers for
// one render must all be computed from the same Snapshot.
type Snapshot struct {
	State      State
	Selector   domain.Selector // selector of the cycle that produced State
	Collection domain.Collection
	// HasData is false until the first successful fetch.
	HasData bool
	// Err is the last fetch error; set only in StateErrorStale.
	Err error
	// UpdatedAt is when Collection was last replaced.
	UpdatedAt time.Time
	// Cycle is the sequence number of the latest started cycle.
	Cycle   uint64
	CycleID string
}

// Store is a mutex-guarded pointer to the current Snapshot.
type Store struct {
	mu    sync.RWMutex
	snap  *Snapshot
	clock clockwork.Clock
}

// New returns a store in the loading state with an empty collection.
func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		snap:  &Snapshot{State: StateLoading},
		clock: clock,
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.snap
}

// Begin marks a new cycle as loading. The previous collection stays
// available. Cycles must be started in increasing order; an older cycle is
// ignored and Begin reports false.
func (s *Store) Begin(cycle uint64, cycleID string, sel domain.Selector) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cycle <= s.snap.Cycle && s.snap.Cycle != 0 {
		return false
	}
	next := *s.snap
	next.State = StateLoading
	next.Selector = sel
	next.Err = nil
	next.Cycle = cycle
	next.CycleID = cycleID
	s.snap = &next
	return true
}

// Replace installs coll as the current collection if cycle is the latest
// started cycle. Results from superseded cycles are dropped and Replace
// reports false.
func (s *Store) Replace(cycle uint64, coll domain.Collection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cycle != s.snap.Cycle {
		return false
	}
	next := *s.snap
	next.State = StateReady
	next.Collection = coll
	next.HasData = true
	next.Err = nil
	next.UpdatedAt = s.clock.Now()
	s.snap = &next
	return true
}

// Fail records a failed cycle. The previous collection, if any, stays in
// place. Failures of superseded cycles are dropped and Fail reports false.
func (s *Store) Fail(cycle uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cycle != s.snap.Cycle {
		return false
	}
	next := *s.snap
	next.State = StateErrorStale
	next.Err = err
	s.snap = &next
	return true
}
