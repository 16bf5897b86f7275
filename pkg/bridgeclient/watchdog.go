package bridgeclient

import (
	"sync"
	"time"
)

// Watchdog is a dead man's switch for the component driving the
// bridge: if Heartbeat is not called within the timeout, the trip
// callback fires once and the watchdog stops.
type Watchdog struct {
	timeout time.Duration
	onTrip  func()

	mu   sync.Mutex
	last time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewWatchdog creates a watchdog with the given silence timeout and
// trip callback. Call Start to arm it.
func NewWatchdog(timeout time.Duration, onTrip func()) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		onTrip:  onTrip,
		stop:    make(chan struct{}),
	}
}

// Heartbeat resets the silence window.
func (w *Watchdog) Heartbeat() {
	w.mu.Lock()
	w.last = time.Now()
	w.mu.Unlock()
}

// Start arms the watchdog. The silence window begins now.
func (w *Watchdog) Start() {
	w.Heartbeat()

	interval := w.timeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				w.mu.Lock()
				elapsed := time.Since(w.last)
				w.mu.Unlock()

				if elapsed > w.timeout {
					w.onTrip()
					return
				}
			}
		}
	}()
}

// Stop disarms the watchdog. Safe to call more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}
