// Package progress drives simulated status/progress streams while a real
// generation request runs elsewhere. The simulator has no I/O of its own: it
// only fires caller-supplied callbacks on a timer chain, so it cannot fail.
package progress

import (
	"math/rand"
	"sync"
	"time"
)

// State is the simulator lifecycle. Transitions are one-way:
// Idle -> Running -> Completed or Cancelled.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Step is one scripted emission: a status line plus a progress percentage.
type Step struct {
	Status  string
	Percent int
}

// Script describes a full simulated stream. Interval is the base cadence
// between steps; Jitter widens each delay by a random amount in [0, Jitter).
// Ceiling bounds total elapsed time: once exceeded, the simulator completes
// regardless of remaining steps.
type Script struct {
	Steps    []Step
	Interval time.Duration
	Jitter   time.Duration
	Ceiling  time.Duration
}

// Callbacks receive the simulated stream. Any field may be nil.
// OnComplete fires exactly once, after the final progress emission, and only
// on the Completed transition, never on Cancelled.
type Callbacks struct {
	OnStatus   func(status string)
	OnProgress func(percent int)
	OnComplete func()
}

// CancelFunc stops a running simulator. Safe to call more than once and
// after completion; later calls are no-ops.
type CancelFunc func()

// Simulator plays one script once. Create a fresh instance per stream.
type Simulator struct {
	mu        sync.Mutex
	state     State
	script    Script
	callbacks Callbacks
	timer     *time.Timer
	index     int
	emitted   int // highest percent emitted so far
	deadline  time.Time
	rng       *rand.Rand
}

// New creates an idle simulator for the given script.
func New(script Script) *Simulator {
	if script.Interval <= 0 {
		script.Interval = 400 * time.Millisecond
	}
	if script.Ceiling <= 0 {
		script.Ceiling = 30 * time.Second
	}
	return &Simulator{
		state:  StateIdle,
		script: script,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// State returns the current lifecycle state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start transitions Idle -> Running and schedules the first step. The
// returned CancelFunc clears all pending timers; once it runs, no further
// callback fires, even one already scheduled. Starting a simulator that is
// not idle is a no-op returning a no-op cancel.
func (s *Simulator) Start(callbacks Callbacks) CancelFunc {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return func() {}
	}
	s.state = StateRunning
	s.callbacks = callbacks
	s.deadline = time.Now().Add(s.script.Ceiling)
	s.timer = time.AfterFunc(s.nextDelay(), s.fire)
	s.mu.Unlock()

	return s.cancel
}

// cancel transitions Running -> Cancelled and stops the pending timer.
func (s *Simulator) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.state = StateCancelled
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire emits the next scripted step. It runs on the timer goroutine; the
// cancelled check under the lock covers the race where cancel lands after
// the timer has already fired but before the callback runs.
func (s *Simulator) fire() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}

	var step Step
	done := s.index >= len(s.script.Steps) || !time.Now().Before(s.deadline)
	if done {
		// Force the stream to its terminal emission.
		step = Step{Percent: 100}
		if s.emitted < 100 {
			s.emitted = 100
		}
	} else {
		step = s.script.Steps[s.index]
		s.index++
		// Progress never moves backwards, whatever the script says.
		if step.Percent < s.emitted {
			step.Percent = s.emitted
		} else {
			s.emitted = step.Percent
		}
		done = s.index >= len(s.script.Steps) && step.Percent >= 100
	}

	callbacks := s.callbacks
	if done {
		s.state = StateCompleted
		s.timer = nil
	} else {
		s.timer = time.AfterFunc(s.nextDelay(), s.fire)
	}
	s.mu.Unlock()

	// Callbacks run outside the lock: the completion hook typically starts
	// the real network call and must not block state queries. A cancel that
	// lands after the unlock can therefore race one final emission through;
	// callers needing a hard cut must re-check liveness in the callback.
	if step.Status != "" && callbacks.OnStatus != nil {
		callbacks.OnStatus(step.Status)
	}
	if callbacks.OnProgress != nil {
		callbacks.OnProgress(step.Percent)
	}
	if done && callbacks.OnComplete != nil {
		callbacks.OnComplete()
	}
}

// nextDelay returns the base interval widened by jitter. Callers hold s.mu.
func (s *Simulator) nextDelay() time.Duration {
	delay := s.script.Interval
	if s.script.Jitter > 0 {
		delay += time.Duration(s.rng.Int63n(int64(s.script.Jitter)))
	}
	return delay
}
