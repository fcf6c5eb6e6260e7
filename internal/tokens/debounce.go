package tokens

import (
	"sync"
	"time"
)

// debouncer delays a function call until a quiet period has elapsed since the
// most recent trigger. Rapid successive triggers reset the timer, so bursts
// of token edits coalesce into one persistence write.
type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{duration: duration}
}

// trigger schedules fn after the debounce duration, cancelling any pending
// call scheduled earlier.
func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// cancel drops any pending call. Safe to call repeatedly.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
