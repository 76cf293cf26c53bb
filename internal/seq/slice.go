package seq

import (
	"fmt"
	"slices"
)

// IndexError reports an out-of-range positional access.
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range", e.Index)
}

// Get returns the element at index; negative indexes count from the end.
// On a Stream, Get consumes elements up to and including the one returned,
// and a negative index consumes the whole Stream.
func (s *Sequence[T]) Get(index int) (T, error) {
	var zero T
	if s.cur == nil {
		i := index
		if i < 0 {
			i += len(s.items)
		}
		if i < 0 || i >= len(s.items) {
			return zero, &IndexError{Index: index}
		}
		return s.items[i], nil
	}
	next := s.cur.pull
	if index >= 0 {
		ok, err := drop(next, index)
		if err != nil {
			return zero, err
		}
		if ok {
			v, found, err := next()
			if err != nil {
				return zero, err
			}
			if found {
				return v, nil
			}
		}
		return zero, &IndexError{Index: index}
	}
	w, err := tail(next, -index)
	if err != nil {
		return zero, err
	}
	if w.len() < -index {
		return zero, &IndexError{Index: index}
	}
	return w.contents()[0], nil
}

// Slice returns s[start:stop:step]. Nil bounds are absent and a zero step
// means 1. A List is sliced with the usual clamping rules. A Stream stays a
// Stream and buffers no more than the bounds require, except for a negative
// step, which realizes it.
func (s *Sequence[T]) Slice(start, stop *int, step int) (*Sequence[T], error) {
	if step == 0 {
		step = 1
	}
	if s.cur == nil || step < 0 {
		items, err := s.Items()
		if err != nil {
			return nil, err
		}
		return NewList(sliceItems(items, start, stop, step)), nil
	}
	next := s.streamSlice(start, stop)
	if step != 1 {
		next = every(next, step)
	}
	return derive(s, next)
}

// Indices resolves optional slice bounds against a length n, returning the
// first index and the exclusive bound to walk towards with step.
func Indices(start, stop *int, step, n int) (lo, hi int) {
	if step > 0 {
		lo, hi = 0, n
	} else {
		lo, hi = n-1, -1
	}
	if start != nil {
		lo = clampIndex(*start, n, step)
	}
	if stop != nil {
		hi = clampIndex(*stop, n, step)
	}
	return lo, hi
}

func clampIndex(i, n, step int) int {
	if i < 0 {
		i += n
		if i < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
		return i
	}
	if i >= n {
		if step < 0 {
			return n - 1
		}
		return n
	}
	return i
}

func sliceItems[T any](items []T, start, stop *int, step int) []T {
	lo, hi := Indices(start, stop, step, len(items))
	if step == 1 {
		if lo >= hi {
			return []T{}
		}
		return slices.Clone(items[lo:hi])
	}
	var out []T
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, items[i])
		}
	}
	return out
}

// streamSlice builds a lazy Puller for s[start:stop] on the cursor of s.
// Nothing is consumed until the first pull.
func (s *Sequence[T]) streamSlice(start, stop *int) Puller[T] {
	src := s.cur.pull
	from := 0
	if start != nil {
		from = *start
	}
	switch {
	case from >= 0 && (stop == nil || *stop >= 0):
		if stop == nil {
			return lazy(func() (Puller[T], error) {
				_, err := drop(src, from)
				return src, err
			})
		}
		n := *stop - from
		if n <= 0 {
			return exhausted[T]
		}
		return lazy(func() (Puller[T], error) {
			_, err := drop(src, from)
			return limit(src, n), err
		})

	case from >= 0:
		return lazy(func() (Puller[T], error) {
			_, err := drop(src, from)
			return trailing(src, -*stop), err
		})

	case stop != nil && *stop < 0:
		if from >= *stop {
			return exhausted[T]
		}
		return lazy(func() (Puller[T], error) {
			w, err := tail(trailing(src, -*stop), *stop-from)
			if err != nil {
				return nil, err
			}
			return pullSlice(w.contents()), nil
		})

	case stop == nil:
		return lazy(func() (Puller[T], error) {
			w, err := tail(src, -from)
			if err != nil {
				return nil, err
			}
			return pullSlice(w.contents()), nil
		})

	default:
		// Negative start, non-negative stop: only the first stop elements
		// can be selected, but where the selection begins depends on the
		// total length.
		return lazy(func() (Puller[T], error) {
			prefix, err := take(src, *stop)
			if err != nil {
				return nil, err
			}
			rest, err := count(src)
			if err != nil {
				return nil, err
			}
			lo := max(len(prefix)+rest+from, 0)
			if lo >= len(prefix) {
				return exhausted[T], nil
			}
			return pullSlice(prefix[lo:]), nil
		})
	}
}

func lazy[T any](build func() (Puller[T], error)) Puller[T] {
	var next Puller[T]
	return func() (T, bool, error) {
		if next == nil {
			n, err := build()
			if err != nil {
				var zero T
				return zero, false, err
			}
			next = n
		}
		return next()
	}
}

func exhausted[T any]() (T, bool, error) {
	var zero T
	return zero, false, nil
}

// drop discards n elements, reporting false if src ended first.
func drop[T any](src Puller[T], n int) (bool, error) {
	for range n {
		_, ok, err := src()
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// take returns up to n elements.
func take[T any](src Puller[T], n int) ([]T, error) {
	out := make([]T, 0, min(n, 1024))
	for range n {
		v, ok, err := src()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

func limit[T any](src Puller[T], n int) Puller[T] {
	return func() (T, bool, error) {
		if n <= 0 {
			var zero T
			return zero, false, nil
		}
		n--
		return src()
	}
}

// every yields the first element of src and then every step-th one.
func every[T any](src Puller[T], step int) Puller[T] {
	first := true
	return func() (T, bool, error) {
		if !first {
			if ok, err := drop(src, step-1); err != nil || !ok {
				var zero T
				return zero, false, err
			}
		}
		first = false
		return src()
	}
}
