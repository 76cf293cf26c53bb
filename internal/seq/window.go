package seq

// window is a fixed-capacity ring buffer holding the most recent elements
// of a stream.
type window[T any] struct {
	buf  []T
	head int
}

func newWindow[T any](capacity int) *window[T] {
	return &window[T]{buf: make([]T, 0, capacity)}
}

// push appends v. Once the window is full the oldest element is evicted
// and returned with ok=true.
func (w *window[T]) push(v T) (evicted T, ok bool) {
	if cap(w.buf) == 0 {
		return v, true
	}
	if len(w.buf) < cap(w.buf) {
		w.buf = append(w.buf, v)
		return evicted, false
	}
	evicted = w.buf[w.head]
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	return evicted, true
}

func (w *window[T]) len() int {
	return len(w.buf)
}

// contents returns the buffered elements, oldest first.
func (w *window[T]) contents() []T {
	out := make([]T, 0, len(w.buf))
	out = append(out, w.buf[w.head:]...)
	return append(out, w.buf[:w.head]...)
}

// tail drains src, keeping its last n elements.
func tail[T any](src Puller[T], n int) (*window[T], error) {
	w := newWindow[T](n)
	for {
		v, ok, err := src()
		if err != nil {
			return nil, err
		}
		if !ok {
			return w, nil
		}
		w.push(v)
	}
}

// trailing yields every element of src except the last n, holding at most
// n elements back.
func trailing[T any](src Puller[T], n int) Puller[T] {
	w := newWindow[T](n)
	return func() (T, bool, error) {
		for {
			v, ok, err := src()
			if err != nil || !ok {
				var zero T
				return zero, false, err
			}
			if old, full := w.push(v); full {
				return old, true, nil
			}
		}
	}
}
