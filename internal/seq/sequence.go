// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package seq implements the sequence value threaded through a pipeline.
//
// A Sequence is either a List, backed by a finite slice that can be iterated
// any number of times, or a Stream, backed by a single forward-only cursor
// that may never end. Operations never mutate a Sequence in place. They
// return a new Sequence that shares the cursor (Stream) or holds a freshly
// computed slice (List).
//
// Sort, Reverse, Uniq and negative-step slicing need the whole input and
// always return a List. Their memory use is unbounded, and on an infinite
// Stream they never return.
package seq

import "iter"

// Puller yields the next element of a single-pass source. ok is false once
// the source is exhausted. Exhaustion is not an error.
type Puller[T any] func() (item T, ok bool, err error)

// Sequence is a List or a Stream of T.
type Sequence[T any] struct {
	items []T
	cur   *cursor[T]
}

// NewList returns a List over items. The slice is not copied and must not
// be modified afterwards.
func NewList[T any](items []T) *Sequence[T] {
	if items == nil {
		items = []T{}
	}
	return &Sequence[T]{items: items}
}

// NewStream returns a Stream pulling from next. release, if non-nil, runs
// once when the Stream (or any Stream derived from it) is closed.
func NewStream[T any](next Puller[T], release func()) *Sequence[T] {
	return &Sequence[T]{cur: newCursor(next, release)}
}

// FromSeq returns a Stream over src.
func FromSeq[T any](src iter.Seq[T]) *Sequence[T] {
	next, stop := iter.Pull(src)
	return NewStream(func() (T, bool, error) {
		v, ok := next()
		return v, ok, nil
	}, stop)
}

// IsStream reports whether s is backed by a single-pass cursor.
func (s *Sequence[T]) IsStream() bool {
	return s.cur != nil
}

// Pull returns a Puller over the remaining elements. Each call on a List
// starts from the first element; on a Stream every Puller shares the cursor.
func (s *Sequence[T]) Pull() Puller[T] {
	if s.cur != nil {
		return s.cur.pull
	}
	return pullSlice(s.items)
}

// All iterates the remaining elements. Iterating a Stream consumes it.
func (s *Sequence[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		next := s.Pull()
		for {
			v, ok, err := next()
			if err != nil {
				yield(v, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// Items returns every remaining element. A Stream is drained; a List
// returns its backing slice, which callers must not modify.
func (s *Sequence[T]) Items() ([]T, error) {
	if s.cur == nil {
		return s.items, nil
	}
	return drain(s.cur.pull)
}

// Realize returns s as a List, draining it if it is a Stream.
func (s *Sequence[T]) Realize() (*Sequence[T], error) {
	if s.cur == nil {
		return s, nil
	}
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	return NewList(items), nil
}

// Len counts the elements. On a Stream this consumes every element.
func (s *Sequence[T]) Len() (int, error) {
	if s.cur == nil {
		return len(s.items), nil
	}
	return count(s.cur.pull)
}

// Truth reports whether s has at least one element. Testing a Stream does
// not lose its head: the element is held back and returned by the next pull.
func (s *Sequence[T]) Truth() (bool, error) {
	if s.cur == nil {
		return len(s.items) > 0, nil
	}
	return s.cur.peek()
}

// Close releases the cursor of a Stream and every Stream it was derived
// from. Closing a List is a no-op.
func (s *Sequence[T]) Close() {
	if s.cur != nil {
		s.cur.close()
	}
}

// derive builds the result of an operation on s from next: a List is
// computed eagerly, a Stream is extended lazily over the same cursor.
func derive[T, U any](s *Sequence[T], next Puller[U], release ...func()) (*Sequence[U], error) {
	if s.cur == nil {
		items, err := drain(next)
		if err != nil {
			return nil, err
		}
		return NewList(items), nil
	}
	parent := s.cur.close
	return NewStream(next, func() {
		parent()
		for _, fn := range release {
			fn()
		}
	}), nil
}

func pullSlice[T any](items []T) Puller[T] {
	i := 0
	return func() (T, bool, error) {
		if i >= len(items) {
			var zero T
			return zero, false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	}
}

func drain[T any](next Puller[T]) ([]T, error) {
	var out []T
	for {
		v, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func count[T any](next Puller[T]) (int, error) {
	n := 0
	for {
		_, ok, err := next()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}
