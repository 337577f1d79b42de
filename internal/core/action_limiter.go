package core

// action_limiter.go bounds how many bulk actions run against the data
// source at once. Every feature instance shares one limiter, so a burst of
// deletes across sessions cannot starve page fetches of connections. When
// all slots are busy a new action waits up to maxWait before failing with
// ErrTooManyActions.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyActions is returned when no action slot frees up in time.
var ErrTooManyActions = errors.New("too many bulk actions running, please try again later")

// DefaultMaxConcurrentActions is the default limit for parallel bulk actions.
const DefaultMaxConcurrentActions = 4

// DefaultMaxActionWait is how long to wait for a slot before rejecting.
const DefaultMaxActionWait = 10 * time.Second

// ActionLimiter is a semaphore over bulk action execution.
type ActionLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewActionLimiter creates a limiter allowing maxConcurrent simultaneous
// actions. Non-positive arguments select the defaults.
func NewActionLimiter(maxConcurrent int, maxWait time.Duration) *ActionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentActions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxActionWait
	}
	return &ActionLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release it.
func (l *ActionLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyActions
	}
}

// TryAcquire takes a slot without blocking.
func (l *ActionLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ActionLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// Do runs fn while holding a slot.
func (l *ActionLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount returns the number of running actions.
func (l *ActionLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ActionLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *ActionLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no action is running or ctx is done. Used on
// shutdown so in-flight deletes finish before the pool closes.
func (l *ActionLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ActionLimiterStatus is a snapshot of the limiter for the health endpoint.
type ActionLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ActionLimiter) Status() ActionLimiterStatus {
	return ActionLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
