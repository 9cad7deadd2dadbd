package portalapi

import (
	"sync"
	"time"
)

// Login lockout policy
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 30 * time.Minute
)

type attempts struct {
	failures    int
	lockedUntil time.Time
}

// lockoutTracker counts consecutive failed logins per account
type lockoutTracker struct {
	mu       sync.Mutex
	accounts map[string]*attempts
}

func newLockoutTracker() *lockoutTracker {
	return &lockoutTracker{accounts: make(map[string]*attempts)}
}

// lockedUntil returns the end of an active lock, if any
func (t *lockoutTracker) lockedUntil(accountID string, now time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.accounts[accountID]
	if !ok || !now.Before(a.lockedUntil) {
		return time.Time{}, false
	}
	return a.lockedUntil, true
}

// fail records a failed attempt and reports whether the account is now
// locked. An expired lock starts a fresh count.
func (t *lockoutTracker) fail(accountID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.accounts[accountID]
	if !ok {
		a = &attempts{}
		t.accounts[accountID] = a
	}
	if !a.lockedUntil.IsZero() && !now.Before(a.lockedUntil) {
		a.failures = 0
		a.lockedUntil = time.Time{}
	}
	a.failures++
	if a.failures >= MaxFailedAttempts {
		a.lockedUntil = now.Add(LockoutDuration)
		return true
	}
	return false
}

func (t *lockoutTracker) reset(accountID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.accounts, accountID)
}
