// README: Tracking watcher: polls request state at a fixed interval and
// streams snapshots until the request reaches a terminal status.
package tracking

import (
	"context"
	"time"

	"roadaid/internal/modules/request"
	"roadaid/internal/types"
)

// Fetcher retrieves current request state. The request service satisfies it
// directly; an HTTP client polling GET /api/emergency-requests/:id is an
// equally valid implementation on the client side.
type Fetcher interface {
	Get(ctx context.Context, id types.ID) (*request.EmergencyRequest, error)
}

// Snapshot is one observation of a request. Err is set on a failed poll, in
// which case Request is nil and the watch has stopped.
type Snapshot struct {
	Request       *request.EmergencyRequest
	TimeRemaining *time.Duration
	Err           error
}

// DefaultPollInterval is how often clients re-fetch request state.
const DefaultPollInterval = 5 * time.Second

type Watcher struct {
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time
}

// NewWatcher builds a watcher polling at interval; zero or negative means
// DefaultPollInterval.
func NewWatcher(fetcher Fetcher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{fetcher: fetcher, interval: interval, now: time.Now}
}

// Watch emits a snapshot immediately and then once per interval, closing the
// channel when the request reaches completed or cancelled, when a poll fails,
// or when ctx is done. The consumer only has to range over the channel.
func (w *Watcher) Watch(ctx context.Context, id types.ID) <-chan Snapshot {
	ch := make(chan Snapshot)
	go func() {
		defer close(ch)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			r, err := w.fetcher.Get(ctx, id)
			if err != nil {
				select {
				case ch <- Snapshot{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			snap := Snapshot{Request: r, TimeRemaining: TimeRemaining(r, w.now())}
			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			}
			if r.Status.Terminal() {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// TimeRemaining derives the countdown shown to the customer: estimated
// arrival minus now, clamped at zero, once a provider is on the way. It is
// nil while the request is still pending or no estimate exists.
func TimeRemaining(r *request.EmergencyRequest, now time.Time) *time.Duration {
	if r.Status == request.StatusPending || r.EstimatedArrival == nil {
		return nil
	}
	d := r.EstimatedArrival.Sub(now)
	if d < 0 {
		d = 0
	}
	return &d
}
