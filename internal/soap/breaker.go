package soap

import (
	"sync"
	"time"
)

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker trips after failThreshold consecutive failures and stays open for
// openFor. Once that passes, one probe call is let through; its outcome
// closes or re-opens the breaker.
type Breaker struct {
	mu            sync.Mutex
	st            BreakerState
	fails         int
	failThreshold int
	openFor       time.Duration
	retryAt       time.Time
	probing       bool
	now           func() time.Time
}

func NewBreaker(threshold int, openFor time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}

	return &Breaker{failThreshold: threshold, openFor: openFor, now: time.Now}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.st
}

// Acquire reports whether a call may go out now. In the open state the first
// caller after the cool down becomes the half-open probe.
func (b *Breaker) Acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case StateOpen:
		if b.now().Before(b.retryAt) || b.probing {
			return false
		}
		b.st = StateHalfOpen
		b.probing = true

		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true

		return true
	default:
		return true
	}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	b.fails = 0
	b.st = StateClosed
	b.probing = false
	b.mu.Unlock()
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.st == StateHalfOpen {
		b.trip()
		return
	}

	b.fails++
	if b.fails >= b.failThreshold {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.st = StateOpen
	b.retryAt = b.now().Add(b.openFor)
	b.probing = false
}
