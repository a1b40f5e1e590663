// Package session tracks admin session inactivity. A Watchdog walks a
// session through Active, Warning, and Expired: the warning fires one
// lead interval before the timeout so the UI can prompt the operator,
// and any activity resets the clock back to Active.
package session

import (
	"sync"
	"time"
)

// State is the lifecycle phase of a watched session.
type State int

const (
	StateActive State = iota
	StateWarning
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

const (
	DefaultTimeout     = 5 * time.Minute
	DefaultWarningLead = time.Minute
)

// Config controls watchdog timing and callbacks. Callbacks run on
// timer goroutines and must not call back into the Watchdog except
// for Touch and Stop.
type Config struct {
	// Timeout is the inactivity window before the session expires.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// WarningLead is how long before expiry the warning fires. Zero
	// means DefaultWarningLead. A lead at or above Timeout skips the
	// warning phase entirely.
	WarningLead time.Duration

	// OnWarning receives the time remaining until expiry.
	OnWarning func(remaining time.Duration)

	// OnExpire fires once when the session times out.
	OnExpire func()
}

// Watchdog is a single session's inactivity timer. Safe for
// concurrent use.
type Watchdog struct {
	mu          sync.Mutex
	timeout     time.Duration
	warningLead time.Duration
	onWarning   func(remaining time.Duration)
	onExpire    func()

	state       State
	warnTimer   *time.Timer
	expireTimer *time.Timer
	stopped     bool

	// epoch advances on every Touch and Stop. A timer callback that
	// was already in flight when the timers were re-armed carries the
	// old epoch and must not act.
	epoch uint64
}

// NewWatchdog creates a watchdog in the Active state with both timers
// armed.
func NewWatchdog(cfg Config) *Watchdog {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WarningLead <= 0 {
		cfg.WarningLead = DefaultWarningLead
	}

	w := &Watchdog{
		timeout:     cfg.Timeout,
		warningLead: cfg.WarningLead,
		onWarning:   cfg.OnWarning,
		onExpire:    cfg.OnExpire,
		state:       StateActive,
	}
	w.arm()
	return w
}

// State returns the current lifecycle phase.
func (w *Watchdog) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Touch records activity. It rewinds a session in Active or Warning
// back to Active with fresh timers. Touching an expired or stopped
// watchdog does nothing; expiry is terminal.
func (w *Watchdog) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.state == StateExpired {
		return
	}
	w.disarmLocked()
	w.epoch++
	w.state = StateActive
	w.arm()
}

// Stop cancels both timers. No callbacks fire after Stop returns
// unless one is already in flight.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	w.epoch++
	w.disarmLocked()
}

// arm schedules the warning and expiry for the current epoch. Callers
// hold w.mu or have exclusive access during construction. Stopping a
// timer does not cancel a callback that has already fired and is
// waiting on the lock, so the callbacks re-check the epoch themselves.
func (w *Watchdog) arm() {
	epoch := w.epoch
	if w.warningLead < w.timeout {
		w.warnTimer = time.AfterFunc(w.timeout-w.warningLead, func() { w.warn(epoch) })
	}
	w.expireTimer = time.AfterFunc(w.timeout, func() { w.expire(epoch) })
}

func (w *Watchdog) disarmLocked() {
	if w.warnTimer != nil {
		w.warnTimer.Stop()
		w.warnTimer = nil
	}
	if w.expireTimer != nil {
		w.expireTimer.Stop()
		w.expireTimer = nil
	}
}

func (w *Watchdog) warn(epoch uint64) {
	w.mu.Lock()
	if w.stopped || epoch != w.epoch || w.state != StateActive {
		w.mu.Unlock()
		return
	}
	w.state = StateWarning
	cb := w.onWarning
	remaining := w.warningLead
	w.mu.Unlock()

	if cb != nil {
		cb(remaining)
	}
}

func (w *Watchdog) expire(epoch uint64) {
	w.mu.Lock()
	if w.stopped || epoch != w.epoch || w.state == StateExpired {
		w.mu.Unlock()
		return
	}
	w.state = StateExpired
	w.disarmLocked()
	cb := w.onExpire
	w.mu.Unlock()

	if cb != nil {
		cb()
	}
}
