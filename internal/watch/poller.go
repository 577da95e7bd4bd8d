package watch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WhiteDevil-93/jules/internal/logging"
)

// MinInterval is the poll interval floor, applied regardless of the
// configured value to bound the background request rate.
const MinInterval = 10 * time.Second

// floor is the minimum Restart enforces on its interval argument.
var floor = MinInterval

// Poller drives reconciliation passes on a timer. A single-flight flag
// guards against overlapping passes: a tick that arrives while a pass is
// still running is skipped (logged, not queued).
type Poller struct {
	run func(ctx context.Context) error

	inFlight atomic.Bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewPoller wraps one pass function (typically Reconciler.Run).
func NewPoller(run func(ctx context.Context) error) *Poller {
	return &Poller{run: run}
}

// Restart applies a configuration change at runtime: the current timer
// (if any) is stopped, and a new one is started when enabled. The
// interval is clamped to MinInterval.
func (p *Poller) Restart(ctx context.Context, enabled bool, interval time.Duration) {
	p.Stop()

	if !enabled {
		logging.Debug("background refresh disabled")
		return
	}
	if interval < floor {
		interval = floor
	}

	p.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop = stop
	p.done = done
	p.mu.Unlock()

	logging.Debugf("background refresh every %s", interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Tick(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the timer and waits for the loop goroutine to exit. A pass
// already in flight is not interrupted.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Tick runs one pass immediately, honoring the single-flight guard.
// Returns false when a pass was already in progress and this one was
// skipped.
func (p *Poller) Tick(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		logging.Debug("poll skipped: previous pass still running")
		return false
	}
	defer p.inFlight.Store(false)

	if err := p.run(ctx); err != nil {
		// Background failures are logged, never surfaced.
		logging.Warnf("poll failed: %v", err)
	}
	return true
}
