package generation

import "sync"

// Lock is a single-permit mutual exclusion resource that serializes
// AI-backed operations. Competing acquisitions are rejected, not queued.
type Lock struct {
	permit chan struct{}
}

// NewLock returns an unheld Lock.
func NewLock() *Lock {
	return &Lock{permit: make(chan struct{}, 1)}
}

// TryAcquire takes the permit if it is free. The returned release function
// is safe to call more than once.
func (l *Lock) TryAcquire() (release func(), ok bool) {
	select {
	case l.permit <- struct{}{}:
	default:
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.permit })
	}, true
}

// Held reports whether the permit is currently taken.
func (l *Lock) Held() bool {
	return len(l.permit) == 1
}
