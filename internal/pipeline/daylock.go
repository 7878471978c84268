package pipeline

import "sync"

// dayLocks serializes all read-modify-write cycles on a day's dataset. The
// store offers no compare-and-swap, so concurrent writers to the same day
// would otherwise lose updates.
type dayLocks struct {
	mu    sync.Mutex
	byDay map[string]*sync.Mutex
}

func newDayLocks() *dayLocks {
	return &dayLocks{byDay: map[string]*sync.Mutex{}}
}

// acquire blocks until the lock for date is held and returns the release
// function. Locks are kept for the life of the process; the map stays small
// because only a handful of dates are ever touched.
func (l *dayLocks) acquire(date string) func() {
	l.mu.Lock()
	m, ok := l.byDay[date]
	if !ok {
		m = &sync.Mutex{}
		l.byDay[date] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
