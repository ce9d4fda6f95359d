package pipeline

import (
	"sync"

	"go.uber.org/multierr"
)

// Member is the contract a worker must satisfy to be managed by a
// Workers pool.
type Member interface {
	ID() string
	IsIdle() bool
	Hire() error
	Dismiss() error
}

// PoolStatus is a consistent snapshot of a pool's membership.
type PoolStatus struct {
	// Count is the number of members currently hired.
	Count int

	// TotalCount is the number of members ever hired.
	TotalCount int64

	// PeakCount is the largest Count ever observed.
	PeakCount int

	// IdleCount is the number of members currently idle.
	IdleCount int

	// IdleRate is IdleCount/Count, or 0 for an empty pool. Always
	// within [0, 1].
	IdleRate float64
}

// Workers is a managed set of pool members with hire/dismiss
// bookkeeping.
//
// Dismissal prefers the most recently hired idle member, falling back
// to the most recently hired member, so in-flight work is interrupted
// only when no one is idle. The pool lock guards membership and
// counters only; the blocking part of a member's dismissal runs
// outside it.
type Workers struct {
	mu         sync.Mutex
	members    []Member
	totalCount int64
	peakCount  int
}

func NewWorkers() *Workers { return &Workers{} }

// Hire starts the member and adds it to the pool. The member is not
// added when its Hire fails.
func (w *Workers) Hire(m Member) error {
	if err := m.Hire(); err != nil {
		return err
	}
	w.mu.Lock()
	w.members = append(w.members, m)
	w.totalCount++
	if len(w.members) > w.peakCount {
		w.peakCount = len(w.members)
	}
	w.mu.Unlock()
	return nil
}

// HireN hires n members produced by factory. It returns how many were
// hired; on error the count covers the members hired before the
// failure.
func (w *Workers) HireN(n int, factory func() (Member, error)) (int, error) {
	for i := 0; i < n; i++ {
		m, err := factory()
		if err != nil {
			return i, err
		}
		if err := w.Hire(m); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Dismiss removes and stops one member, preferring idle ones. It
// returns false when the pool is empty.
func (w *Workers) Dismiss() (bool, error) {
	m := w.take("")
	if m == nil {
		return false, nil
	}
	return true, m.Dismiss()
}

// DismissID removes and stops the member with the given id. It
// returns false when no member matches.
func (w *Workers) DismissID(id string) (bool, error) {
	m := w.take(id)
	if m == nil {
		return false, nil
	}
	return true, m.Dismiss()
}

// DismissN dismisses up to n members. It returns how many were
// dismissed.
func (w *Workers) DismissN(n int) (int, error) {
	count := 0
	for i := 0; i < n; i++ {
		ok, err := w.Dismiss()
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		count++
	}
	return count, nil
}

// DismissAll dismisses every member and returns the dismissal errors
// combined.
func (w *Workers) DismissAll() error {
	var errs error
	for {
		ok, err := w.Dismiss()
		errs = multierr.Append(errs, err)
		if !ok {
			return errs
		}
	}
}

// take removes one member from the pool under the lock and returns
// it. With an id it removes that member; otherwise it picks the most
// recently hired idle member, or the most recently hired one when
// none is idle. Returns nil when nothing matches.
func (w *Workers) take(id string) Member {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.members)
	if n == 0 {
		return nil
	}

	idx := -1
	if id != "" {
		for i := 0; i < n; i++ {
			if w.members[i].ID() == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
	} else {
		idx = n - 1
		for i := n - 1; i >= 0; i-- {
			if w.members[i].IsIdle() {
				idx = i
				break
			}
		}
	}

	m := w.members[idx]
	w.members = append(w.members[:idx], w.members[idx+1:]...)
	return m
}

// Count returns the number of members currently hired.
func (w *Workers) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.members)
}

// Status returns a snapshot of the pool taken under a single lock
// acquisition.
func (w *Workers) Status() PoolStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := PoolStatus{
		Count:      len(w.members),
		TotalCount: w.totalCount,
		PeakCount:  w.peakCount,
	}
	for _, m := range w.members {
		if m.IsIdle() {
			st.IdleCount++
		}
	}
	if st.Count > 0 {
		st.IdleRate = float64(st.IdleCount) / float64(st.Count)
	}
	return st
}
