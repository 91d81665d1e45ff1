// Package ratelimit paces outbound requests with a sliding one-minute
// window shared by every search in the process.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const windowSize = time.Minute

// Window counts requests over the trailing minute. When a request would
// exceed the per-minute limit the caller sleeps until the oldest request
// in the window ages out, plus a one-second margin.
type Window struct {
	limit int
	mu    sync.Mutex
	times []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(perMinute int) *Window {
	return &Window{
		limit: perMinute,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// WithClock swaps the time source and sleeper. Used in tests.
func (w *Window) WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) *Window {
	w.now = now
	w.sleep = sleep
	return w
}

// Wait records a request and blocks when the window is full. It returns
// the time slept, or ctx's error if ctx ends first.
func (w *Window) Wait(ctx context.Context) (time.Duration, error) {
	wait := w.reserve()
	if wait <= 0 {
		return 0, nil
	}
	if err := w.sleep(ctx, wait); err != nil {
		return 0, err
	}
	return wait, nil
}

func (w *Window) reserve() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.limit <= 0 {
		return 0
	}

	now := w.now()
	w.times = append(w.times, now)

	cutoff := now.Add(-windowSize)
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept

	if len(w.times) < w.limit {
		return 0
	}
	oldest := w.times[0]
	return windowSize - now.Sub(oldest) + time.Second
}

// Recent reports how many requests fall inside the current window.
func (w *Window) Recent() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-windowSize)
	n := 0
	for _, t := range w.times {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
