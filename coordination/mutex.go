package coordination

import (
	"context"
	"errors"
	"time"
)

// Mutex is a convenience wrapper over a count-1 semaphore: exclusive
// ownership instead of counted ownership. Grounded on the teacher's
// xdlock.Factory/LockHandle split — Lock/TryLock naming and the
// "handle=nil, err=nil means held elsewhere" TryLock contract carry
// over directly. There is no Unlock: the returned Lease's Release
// gives the mutex up.
type Mutex struct {
	session *Session
	name    string
}

// NewMutex names the semaphore a Mutex will contend on. CreateSemaphore
// must be called once (e.g. at schema-setup time) before first use.
func NewMutex(session *Session, name string) *Mutex {
	return &Mutex{session: session, name: name}
}

// TryLock attempts to acquire the mutex without blocking past timeout.
// Returns (nil, nil) if it is currently held elsewhere.
func (m *Mutex) TryLock(ctx context.Context, timeout time.Duration) (*Lease, error) {
	lease, err := m.session.AcquireSemaphore(ctx, m.name, 1, timeout, false, nil)
	if err != nil {
		if errors.Is(err, ErrLeaseLost) {
			return nil, nil
		}
		return nil, err
	}
	return lease, nil
}

// Lock blocks until the mutex is acquired or ctx ends.
func (m *Mutex) Lock(ctx context.Context) (*Lease, error) {
	return m.session.AcquireSemaphore(ctx, m.name, 1, 0, false, nil)
}
