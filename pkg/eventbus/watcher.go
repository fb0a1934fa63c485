package eventbus

import (
	"context"
	"time"
)

// RefreshFunc re-reads whatever state a view displays.
type RefreshFunc func(ctx context.Context)

// Watcher refreshes on two triggers: every subscribed event and a fixed
// polling interval. The ticker covers events that were missed or published
// by another process; both paths call the same RefreshFunc.
type Watcher struct {
	bus      *Bus
	events   []string
	interval time.Duration
	refresh  RefreshFunc
}

func NewWatcher(bus *Bus, interval time.Duration, refresh RefreshFunc, events ...string) *Watcher {
	return &Watcher{
		bus:      bus,
		events:   events,
		interval: interval,
		refresh:  refresh,
	}
}

// Run refreshes once immediately, then on every trigger until ctx is done.
// Events arriving while a refresh runs are coalesced into one follow-up
// refresh. Subscriptions are removed before Run returns.
func (w *Watcher) Run(ctx context.Context) {
	signal := make(chan struct{}, 1)
	notify := func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	for _, e := range w.events {
		unsubscribe := w.bus.Subscribe(e, notify)
		defer unsubscribe()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
			w.refresh(ctx)
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}
