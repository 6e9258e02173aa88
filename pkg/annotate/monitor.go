package annotate

import (
	"context"
	"time"
)

// DebounceWindow is the default quiet period after the last mutation
// signal before a rescan event is emitted.
const DebounceWindow = 300 * time.Millisecond

// Monitor turns a burst of document-mutation signals into a debounced
// stream of rescan events: N signals within one window cost one rescan.
type Monitor struct {
	window time.Duration
	notify chan struct{}
	events chan struct{}
}

// NewMonitor creates a monitor. A window <= 0 uses DebounceWindow.
func NewMonitor(window time.Duration) *Monitor {
	if window <= 0 {
		window = DebounceWindow
	}
	return &Monitor{
		window: window,
		notify: make(chan struct{}, 1),
		events: make(chan struct{}, 1),
	}
}

// Notify records a mutation signal. Never blocks; signals arriving while
// one is already queued coalesce.
func (m *Monitor) Notify() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Events is the debounced rescan-requested stream.
func (m *Monitor) Events() <-chan struct{} {
	return m.events
}

// Run drives the debounce loop until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-m.notify:
			if timer == nil {
				timer = time.NewTimer(m.window)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(m.window)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case m.events <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}
}
