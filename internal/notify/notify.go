// Package notify holds the single transient status message shown to the user.
//
// At most one notification is visible. Show replaces whatever is displayed and
// schedules an automatic dismissal; Dismiss clears it early. Nothing is queued.
package notify

import (
	"sync"
	"time"
)

// DefaultLifetime is how long a notification stays visible.
const DefaultLifetime = 4 * time.Second

// Severity classifies a notification.
type Severity int

const (
	Success Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "success"
}

// Notification is a message with its severity.
type Notification struct {
	ID       uint64
	Message  string
	Severity Severity
	ShownAt  time.Time
}

// Timer is a pending deferred action.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred actions. It exists so tests can fire dismissals by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Channel owns the visible notification and its dismiss timer.
type Channel struct {
	mu       sync.Mutex
	clock    Clock
	lifetime time.Duration
	onChange func()

	current *Notification
	pending Timer
	nextID  uint64
}

// Option configures a Channel.
type Option func(*Channel)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(ch *Channel) {
		if c != nil {
			ch.clock = c
		}
	}
}

// WithLifetime overrides DefaultLifetime.
func WithLifetime(d time.Duration) Option {
	return func(ch *Channel) {
		if d > 0 {
			ch.lifetime = d
		}
	}
}

// OnChange registers f to run after every show, dismissal and expiry.
// f is called without the channel lock held.
func OnChange(f func()) Option {
	return func(ch *Channel) { ch.onChange = f }
}

// New returns an empty Channel.
func New(opts ...Option) *Channel {
	ch := &Channel{clock: realClock{}, lifetime: DefaultLifetime}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Show replaces the current notification and schedules its dismissal.
func (c *Channel) Show(message string, severity Severity) Notification {
	c.mu.Lock()
	c.cancelLocked()
	c.nextID++
	n := Notification{
		ID:       c.nextID,
		Message:  message,
		Severity: severity,
		ShownAt:  c.clock.Now(),
	}
	c.current = &n
	id := n.ID
	c.pending = c.clock.AfterFunc(c.lifetime, func() { c.expire(id) })
	c.mu.Unlock()

	c.changed()
	return n
}

// Success shows a success notification.
func (c *Channel) Success(message string) Notification { return c.Show(message, Success) }

// Error shows an error notification.
func (c *Channel) Error(message string) Notification { return c.Show(message, Error) }

// Dismiss clears the current notification, if any.
func (c *Channel) Dismiss() {
	c.mu.Lock()
	had := c.current != nil
	c.cancelLocked()
	c.current = nil
	c.mu.Unlock()

	if had {
		c.changed()
	}
}

// Current returns the visible notification.
func (c *Channel) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// expire runs from the dismiss timer. A timer that lost the race with Stop
// still carries the id of the notification it was scheduled for, so it
// cannot clear a newer one.
func (c *Channel) expire(id uint64) {
	c.mu.Lock()
	if c.current == nil || c.current.ID != id {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.pending = nil
	c.mu.Unlock()

	c.changed()
}

func (c *Channel) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Channel) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
