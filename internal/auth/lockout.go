package auth

import (
	"sync"
	"time"
)

// lockoutTracker remembers the last failed attempt per vehicle and keeps
// the vehicle locked for a fixed window afterwards. The state is process
// local on purpose: a unit restart clears all lockouts.
type lockoutTracker struct {
	window time.Duration

	mu         sync.Mutex
	lastFailed map[int64]time.Time
}

func newLockoutTracker(window time.Duration) *lockoutTracker {
	return &lockoutTracker{
		window:     window,
		lastFailed: make(map[int64]time.Time),
	}
}

// locked reports whether the vehicle is inside its lockout window at the
// given instant. Expired entries are removed on read.
func (l *lockoutTracker) locked(vehicleID int64, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	failed, ok := l.lastFailed[vehicleID]
	if !ok {
		return false, time.Time{}
	}
	until := failed.Add(l.window)
	if !now.Before(until) {
		delete(l.lastFailed, vehicleID)
		return false, time.Time{}
	}
	return true, until
}

// fail records a failed attempt, restarting the window.
func (l *lockoutTracker) fail(vehicleID int64, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastFailed[vehicleID] = now
}

// clear removes a vehicle's lockout, used after a successful match.
func (l *lockoutTracker) clear(vehicleID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lastFailed, vehicleID)
}

// vehicleLocks hands out one mutex per vehicle id so an authentication
// attempt runs start to finish without racing a concurrent attempt for
// the same vehicle. Attempts for different vehicles proceed in parallel.
type vehicleLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newVehicleLocks() *vehicleLocks {
	return &vehicleLocks{locks: make(map[int64]*sync.Mutex)}
}

func (v *vehicleLocks) get(vehicleID int64) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()

	m, ok := v.locks[vehicleID]
	if !ok {
		m = &sync.Mutex{}
		v.locks[vehicleID] = m
	}
	return m
}
