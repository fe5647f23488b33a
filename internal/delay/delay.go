// Package delay abstracts the simulated latency between pipeline stages so
// callers can run against the wall clock, a scaled clock, or no clock at all.
package delay

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// Clock waits on a clock.Clock, optionally scaling every duration.
type Clock struct {
	clock clock.Clock
	scale float64
}

func New(c clock.Clock) *Clock {
	return NewScaled(c, 1)
}

// NewScaled multiplies every delay by scale. A scale of zero or less makes
// every delay return immediately.
func NewScaled(c clock.Clock, scale float64) *Clock {
	if c == nil {
		c = clock.New()
	}
	return &Clock{clock: c, scale: scale}
}

func (c *Clock) Delay(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * c.scale)
	if d <= 0 {
		return ctx.Err()
	}
	timer := c.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Recorder returns immediately and remembers every requested delay.
type Recorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *Recorder) Delay(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *Recorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Delays() {
		total += d
	}
	return total
}
