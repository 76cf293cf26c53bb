// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package seq

// cursor is the forward-only position of a Stream. It can hold back one
// element so that emptiness can be tested without losing it.
type cursor[T any] struct {
	next    Puller[T]
	release func()

	held   bool
	head   T
	done   bool
	closed bool
}

func newCursor[T any](next Puller[T], release func()) *cursor[T] {
	return &cursor[T]{next: next, release: release}
}

func (c *cursor[T]) pull() (T, bool, error) {
	var zero T
	if c.held {
		v := c.head
		c.head, c.held = zero, false
		return v, true, nil
	}
	if c.done {
		return zero, false, nil
	}
	v, ok, err := c.next()
	if err != nil {
		c.done = true
		return zero, false, err
	}
	if !ok {
		c.done = true
		return zero, false, nil
	}
	return v, true, nil
}

// peek reports whether another element is available. The element it had
// to fetch is held and handed out by the next pull.
func (c *cursor[T]) peek() (bool, error) {
	if c.held {
		return true, nil
	}
	v, ok, err := c.pull()
	if err != nil || !ok {
		return false, err
	}
	c.head, c.held = v, true
	return true, nil
}

func (c *cursor[T]) close() {
	if c.closed {
		return
	}
	var zero T
	c.closed, c.done = true, true
	c.head, c.held = zero, false
	if c.release != nil {
		c.release()
	}
}
