// Package hooks holds scheduled work that piggybacks on request traffic.
// The closing hook is injected into the status endpoint rather than run on
// its own timer, so a deployment with no traffic does no background work.
package hooks

import (
	"context"
	"log"
	"sync"
	"time"
)

// Throttle admits at most one call per interval. Safe for concurrent use.
type Throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether enough time has passed since the last admitted
// call, and records this one if so.
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// OpportunityCloser is the slice of the service layer the closing hook
// needs.
type OpportunityCloser interface {
	CloseExpiredOpportunities(ctx context.Context) (int, error)
}

// Closer moves published opportunities past their deadline into
// evaluation. Poll is called on every status request; the throttle keeps
// the underlying sweep from running more than once per interval.
type Closer struct {
	service  OpportunityCloser
	throttle *Throttle
}

func NewCloser(service OpportunityCloser, throttle *Throttle) *Closer {
	return &Closer{service: service, throttle: throttle}
}

func (c *Closer) Poll(ctx context.Context) {
	if !c.throttle.Allow(time.Now()) {
		return
	}

	closed, err := c.service.CloseExpiredOpportunities(ctx)
	if err != nil {
		log.Printf("hooks.Closer.Poll: %s", err)
		return
	}
	if closed > 0 {
		log.Printf("hooks.Closer.Poll: closed %d expired opportunities", closed)
	}
}
