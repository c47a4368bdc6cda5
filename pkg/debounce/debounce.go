package debounce

import (
	"sync"
	"time"
)

// State of a Debouncer.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "PENDING"
	}
	return "IDLE"
}

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock abstracts timer creation so tests can drive time manually.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by the time package.
var RealClock Clock = realClock{}

// Debouncer coalesces bursts of Trigger calls into one action that runs
// once the quiet window has elapsed since the last trigger.
//
// Idle -> Pending(deadline) on the first trigger, Pending -> Pending(new
// deadline) on every following trigger, Pending -> Idle when the deadline
// passes and the action fires.
type Debouncer struct {
	mu       sync.Mutex
	clock    Clock
	window   time.Duration
	action   func()
	state    State
	deadline time.Time
	timer    Timer
	// generation guards against a stopped timer whose callback already started.
	generation uint64
	stopped    bool
}

func New(window time.Duration, action func()) *Debouncer {
	return NewWithClock(RealClock, window, action)
}

func NewWithClock(clock Clock, window time.Duration, action func()) *Debouncer {
	return &Debouncer{
		clock:  clock,
		window: window,
		action: action,
	}
}

// Trigger records an event and (re)arms the quiet window.
// Calls after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.generation++
	gen := d.generation
	d.state = Pending
	d.deadline = d.clock.Now().Add(d.window)
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.generation || d.state != Pending {
		d.mu.Unlock()
		return
	}
	d.state = Idle
	d.deadline = time.Time{}
	d.timer = nil
	d.mu.Unlock()

	d.action()
}

// Stop cancels any pending action. The debouncer cannot be reused afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.state = Idle
	d.deadline = time.Time{}
}

// State returns the current state and, when Pending, the deadline.
func (d *Debouncer) State() (State, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.deadline
}
