package kotoba

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pacer lets one request through at a time and waits a fixed pause before each.
type Pacer struct {
	sem   *semaphore.Weighted
	pause time.Duration
}

func NewPacer(pause time.Duration) *Pacer {
	return &Pacer{sem: semaphore.NewWeighted(1), pause: pause}
}

func (p *Pacer) Acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if p.pause > 0 {
		timer := time.NewTimer(p.pause)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			p.sem.Release(1)
			return nil, ctx.Err()
		}
	}
	return func() { p.sem.Release(1) }, nil
}
