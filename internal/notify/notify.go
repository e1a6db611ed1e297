// Package notify holds the transient status banner shown after mutations.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 3 * time.Second

// Kind classifies a notification
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindInfo
)

// Notification is a single transient message
type Notification struct {
	Message   string
	Kind      Kind
	CreatedAt time.Time
	TTL       time.Duration
}

// IsError reports whether the notification describes a failure
func (n Notification) IsError() bool {
	return n.Kind == KindFailure
}

// Expired reports whether the notification should no longer be shown
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.CreatedAt.Add(n.TTL))
}

// Notifier receives notifications emitted by state engines.
type Notifier interface {
	Notify(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) { f(kind, message) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Kind, string) {})

// Banner keeps the most recent notification. A newer notification replaces
// the current one.
type Banner struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	current *Notification
	seq     int
}

// NewBanner creates a banner whose notifications expire after ttl
// (DefaultTTL when ttl <= 0).
func NewBanner(ttl time.Duration) *Banner {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Banner{ttl: ttl, now: time.Now}
}

// Notify implements Notifier
func (b *Banner) Notify(kind Kind, message string) {
	b.mu.Lock()
	b.seq++
	b.current = &Notification{
		Message:   message,
		Kind:      kind,
		CreatedAt: b.now(),
		TTL:       b.ttl,
	}
	b.mu.Unlock()
}

// TTL returns how long notifications stay visible
func (b *Banner) TTL() time.Duration { return b.ttl }

// Current returns the visible notification, if any
func (b *Banner) Current() (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.current.Expired(b.now()) {
		return Notification{}, false
	}
	return *b.current, true
}

// Seq returns the sequence number of the latest notification
func (b *Banner) Seq() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Dismiss hides the current notification
func (b *Banner) Dismiss() {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
}

// Expire hides the notification only if it is still the one identified by seq.
func (b *Banner) Expire(seq int) {
	b.mu.Lock()
	if b.seq == seq {
		b.current = nil
	}
	b.mu.Unlock()
}
