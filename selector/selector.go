package selector

import (
	"strings"
	"sync"
	"time"

	"gestion-admin/utils"
)

// CloseDelay is how long a blurred list stays open so a pending pick can land.
const CloseDelay = 220 * time.Millisecond

type Option struct {
	Value string
	Label string
}

// Filter keeps the options whose label contains query, ignoring case and accents.
// A blank query keeps everything.
func Filter(options []Option, query string) []Option {
	q := utils.NormalizeLabel(strings.TrimSpace(query))
	if q == "" {
		return options
	}
	out := make([]Option, 0, len(options))
	for _, o := range options {
		if strings.Contains(utils.NormalizeLabel(o.Label), q) {
			out = append(out, o)
		}
	}
	return out
}

// Combo is the state of a search-as-you-type select. The zero value is not usable; call New.
type Combo struct {
	mu       sync.Mutex
	options  []Option
	value    string
	query    string
	open     bool
	timer    *time.Timer
	epoch    uint64
	delay    time.Duration
	onChange func(Option, bool)
}

// New builds a closed combo. onChange (may be nil) fires on every selection change;
// the bool is false when the selection was cleared.
func New(options []Option, onChange func(Option, bool)) *Combo {
	return &Combo{options: options, delay: CloseDelay, onChange: onChange}
}

// SetCloseDelay overrides CloseDelay, mostly for tests.
func (c *Combo) SetCloseDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

func (c *Combo) SetOptions(options []Option) {
	c.mu.Lock()
	c.options = options
	c.mu.Unlock()
}

func (c *Combo) selectedLocked() (Option, bool) {
	if c.value == "" {
		return Option{}, false
	}
	for _, o := range c.options {
		if o.Value == c.value {
			return o, true
		}
	}
	return Option{}, false
}

func (c *Combo) stopTimerLocked() {
	c.epoch++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Focus opens the list, seeding the search box with the current label.
func (c *Combo) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.open = true
	c.query = ""
	if o, ok := c.selectedLocked(); ok {
		c.query = o.Label
	}
}

// Type replaces the search text. Emptying it drops the current selection.
func (c *Combo) Type(query string) {
	c.mu.Lock()
	c.query = query
	c.open = true
	cleared := strings.TrimSpace(query) == "" && c.value != ""
	if cleared {
		c.value = ""
	}
	fn := c.onChange
	c.mu.Unlock()
	if cleared && fn != nil {
		fn(Option{}, false)
	}
}

// Blur closes the list after the close delay unless something reopens or picks first.
func (c *Combo) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	epoch := c.epoch
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch != epoch {
			return
		}
		c.open = false
		c.timer = nil
	})
}

// PointerDown picks value from the open list. It reports false when the list is
// closed or value is not among the visible options.
func (c *Combo) PointerDown(value string) bool {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return false
	}
	var picked Option
	found := false
	for _, o := range Filter(c.options, c.query) {
		if o.Value == value {
			picked, found = o, true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked()
	c.value = picked.Value
	c.query = ""
	c.open = false
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(picked, true)
	}
	return true
}

// CloseOutside is a pointer-down anywhere outside the control.
func (c *Combo) CloseOutside() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.open = false
}

func (c *Combo) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Combo) Selected() (Option, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

// Text is what the input shows: the search while open, the selected label otherwise.
func (c *Combo) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return c.query
	}
	o, _ := c.selectedLocked()
	return o.Label
}

// Visible lists the options shown under the input; nil when closed.
func (c *Combo) Visible() []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	return Filter(c.options, c.query)
}
