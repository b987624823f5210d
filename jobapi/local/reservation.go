package local

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

type reservationToken struct {
	mu       sync.Mutex
	sem      *semaphore.Weighted
	consumed bool
}

// Release gives the slot back if it was never consumed by Execute.
func (t *reservationToken) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return
	}
	t.consumed = true
	t.sem.Release(1)
}

// consume marks the token used by Execute without releasing the slot;
// the caller is responsible for releasing it once the subprocess exits.
func (t *reservationToken) consume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return false
	}
	t.consumed = true
	return true
}
