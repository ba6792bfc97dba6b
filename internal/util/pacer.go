package util

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/superversivesf/saga-importer/internal/logger"
)

var (
	// DefaultMinDelay is the shortest pause before a request to the external source
	DefaultMinDelay = 100 * time.Millisecond
	// DefaultMaxDelay is the longest pause before a request under normal conditions
	DefaultMaxDelay = 250 * time.Millisecond
	// DefaultCeiling bounds how far Backoff may stretch the delay window
	DefaultCeiling = 10 * time.Second
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer spaces out requests with a randomized delay drawn from [min, max).
// Backoff widens the window after the source pushes back; Reset restores it.
type Pacer struct {
	mu      sync.Mutex
	min     time.Duration
	max     time.Duration
	baseMin time.Duration
	baseMax time.Duration
	ceiling time.Duration
	rnd     *rand.Rand
	sleep   SleepFunc
	waits   int
}

// NewPacer creates a Pacer. Non-positive bounds fall back to the defaults.
func NewPacer(min, max time.Duration) *Pacer {
	if min <= 0 {
		min = DefaultMinDelay
	}
	if max < min {
		max = min
		if DefaultMaxDelay > max {
			max = DefaultMaxDelay
		}
	}
	return &Pacer{
		min:     min,
		max:     max,
		baseMin: min,
		baseMax: max,
		ceiling: DefaultCeiling,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   Sleep,
	}
}

// WithSleep swaps the sleep implementation, mainly for tests.
func (p *Pacer) WithSleep(fn SleepFunc) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sleep = fn
	return p
}

// Wait sleeps for a random interval inside the current window.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	d := p.min
	if span := p.max - p.min; span > 0 {
		d += time.Duration(p.rnd.Int63n(int64(span)))
	}
	sleep := p.sleep
	p.waits++
	p.mu.Unlock()

	return sleep(ctx, d)
}

// Backoff stretches the delay window by half, up to the ceiling, and
// returns the new upper bound.
func (p *Pacer) Backoff() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.min = time.Duration(1.5 * float64(p.min))
	p.max = time.Duration(1.5 * float64(p.max))
	if p.max > p.ceiling {
		p.max = p.ceiling
	}
	if p.min > p.max {
		p.min = p.max
	}

	logger.Get().Warn("External source pushed back, slowing down", map[string]interface{}{
		"min_delay": p.min.String(),
		"max_delay": p.max.String(),
	})
	return p.max
}

// Reset restores the configured window.
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.min, p.max = p.baseMin, p.baseMax
}

// Window returns the current delay bounds.
func (p *Pacer) Window() (time.Duration, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min, p.max
}

// Waits returns how many times Wait has been called.
func (p *Pacer) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}
