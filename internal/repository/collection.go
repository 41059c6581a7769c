package repository

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate id")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// collection is an insertion-ordered, mutex-guarded map used by every
// in-memory repository. Values are stored by copy.
type collection[T any] struct {
	mu    sync.RWMutex
	order []uuid.UUID
	items map[uuid.UUID]T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[uuid.UUID]T)}
}

func (c *collection[T]) insert(id uuid.UUID, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(id, v)
}

func (c *collection[T]) insertLocked(id uuid.UUID, v T) error {
	if _, ok := c.items[id]; ok {
		return ErrDuplicate
	}
	c.items[id] = v
	c.order = append(c.order, id)
	return nil
}

func (c *collection[T]) get(id uuid.UUID) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return v, nil
}

func (c *collection[T]) replace(id uuid.UUID, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	c.items[id] = v
	return nil
}

func (c *collection[T]) remove(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// list returns every value in insertion order.
func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *collection[T]) find(match func(T) bool) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.order {
		if v := c.items[id]; match(v) {
			return v, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}
