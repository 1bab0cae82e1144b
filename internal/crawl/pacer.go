package crawl

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer inserts the mandatory courtesy delay between consecutive HTTP
// requests to one source. Pacers are created per crawl invocation, like the
// listing source itself, so concurrent crawls pace independently.
type Pacer interface {
	// Wait blocks until the next request may proceed or the context ends.
	Wait(ctx context.Context) error
}

// intervalPacer spaces requests a fixed interval apart using a token bucket.
type intervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a Pacer enforcing a fixed minimum interval
// between requests. The first call never blocks.
func NewIntervalPacer(interval time.Duration) Pacer {
	return &intervalPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// jitterPacer sleeps a random duration in [min, max) between requests.
// Some sources (MoneyUDN) block clients with metronomic request timing.
type jitterPacer struct {
	min, max time.Duration
	started  bool
}

// NewJitterPacer returns a Pacer sleeping a uniformly random duration in
// [min, max) before every request after the first.
func NewJitterPacer(min, max time.Duration) Pacer {
	if max < min {
		max = min
	}
	return &jitterPacer{min: min, max: max}
}

func (p *jitterPacer) Wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return nil
	}
	delay := p.min
	if span := p.max - p.min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
