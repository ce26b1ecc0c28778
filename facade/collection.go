package facade

import "sync"

// Collection is the local mirror of one remote collection. Reads return copies.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) int
}

func NewCollection[T any](id func(T) int) *Collection[T] {
	return &Collection[T]{items: []T{}, id: id}
}

func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)
	c.mu.Lock()
	c.items = cp
	c.mu.Unlock()
}

func (c *Collection[T]) Prepend(item T) {
	c.mu.Lock()
	c.items = append([]T{item}, c.items...)
	c.mu.Unlock()
}

func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
}

// Put replaces the item with the same id. It reports whether one was found.
func (c *Collection[T]) Put(item T) bool {
	id := c.id(item)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items[i] = item
			return true
		}
	}
	return false
}

func (c *Collection[T]) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items[:0:0]
	for _, it := range c.items {
		if c.id(it) != id {
			out = append(out, it)
		}
	}
	c.items = out
}

func (c *Collection[T]) Find(id int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}
