// Package notify holds the transient success/error/warning banner.
package notify

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
)

const DefaultTTL = 3 * time.Second

type Notification struct {
	ID      uuid.UUID
	Kind    Kind
	Message string
	At      time.Time
}

// Notifier shows one notification at a time. A newer one replaces the current one,
// and the expiry of an older one never dismisses its replacement.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Notification
	timer   *time.Timer
	subs    []func(Notification)
}

func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl}
}

func (n *Notifier) Success(msg string) { n.Show(Success, msg) }
func (n *Notifier) Error(msg string)   { n.Show(Error, msg) }
func (n *Notifier) Warning(msg string) { n.Show(Warning, msg) }

// Show displays msg for the notifier's TTL. An empty message dismisses.
func (n *Notifier) Show(kind Kind, msg string) {
	if msg == "" {
		n.Dismiss()
		return
	}
	note := Notification{ID: uuid.New(), Kind: kind, Message: msg, At: time.Now()}
	log.Printf("notify: [%s] %s", kind, msg)

	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = &note
	id := note.ID
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(id) })
	subs := append([]func(Notification){}, n.subs...)
	n.mu.Unlock()

	for _, fn := range subs {
		fn(note)
	}
}

func (n *Notifier) expire(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current != nil && n.current.ID == id {
		n.current = nil
		n.timer = nil
	}
}

// Current returns the visible notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
}

// Subscribe registers fn to be called with every notification shown.
func (n *Notifier) Subscribe(fn func(Notification)) {
	n.mu.Lock()
	n.subs = append(n.subs, fn)
	n.mu.Unlock()
}
