package api

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mzielin/tender-harvester/internal/telemetry"
)

// Pacer spaces outbound requests. Implementations must be safe to replace
// with a different pacing strategy without callers noticing.
type Pacer interface {
	Wait(ctx context.Context) error
}

// intervalPacer enforces a fixed minimum interval between calls. It is built
// on a burst-1 token bucket, which degenerates to exactly one stored token:
// an idle pacer admits a single immediate call and spaces everything after
// it, so bursts are never possible.
type intervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a pacer allowing at most rps calls per second.
// A zero or negative rps disables pacing.
func NewIntervalPacer(rps float64) Pacer {
	if rps <= 0 {
		return noopPacer{}
	}
	return &intervalPacer{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until the next call is allowed, respecting the context.
func (p *intervalPacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	if d := time.Since(start); d > time.Millisecond {
		telemetry.ObservePacerWait(d)
	}
	return nil
}

type noopPacer struct{}

func (noopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
