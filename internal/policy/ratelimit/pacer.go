// Package ratelimit provides pacing primitives for polite crawling.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive Wait calls at least one delay apart. The first
// call returns immediately. A zero Pacer never waits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer constructs a Pacer with the given minimum delay between calls.
// A non-positive delay yields a no-op Pacer.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next call is permitted or the context ends.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	return nil
}
