package seq

import (
	"maps"
	"slices"
)

// MapFunc transforms item, the index-th element of the input. Returning
// keep=false drops the element; the index still advances.
type MapFunc[T any] func(item T, index int) (out T, keep bool, err error)

// Map applies fn to every element.
func (s *Sequence[T]) Map(fn MapFunc[T]) (*Sequence[T], error) {
	next := s.Pull()
	index := 0
	return derive(s, func() (T, bool, error) {
		var zero T
		for {
			v, ok, err := next()
			if err != nil || !ok {
				return zero, false, err
			}
			out, keep, err := fn(v, index)
			index++
			if err != nil {
				return zero, false, err
			}
			if keep {
				return out, true, nil
			}
		}
	})
}

// Filter keeps the elements for which pred is true.
func (s *Sequence[T]) Filter(pred func(T) (bool, error)) (*Sequence[T], error) {
	return s.Map(func(item T, _ int) (T, bool, error) {
		keep, err := pred(item)
		return item, keep, err
	})
}

// Flatten replaces every element with the elements lines returns for it.
func (s *Sequence[T]) Flatten(lines func(T) ([]T, error)) (*Sequence[T], error) {
	return s.Merge(func(item T) (Puller[T], error) {
		parts, err := lines(item)
		if err != nil {
			return nil, err
		}
		return pullSlice(parts), nil
	})
}

// Merge concatenates the sources expand returns for every element, one
// level deep. A nil source contributes nothing.
func (s *Sequence[T]) Merge(expand func(T) (Puller[T], error)) (*Sequence[T], error) {
	next := s.Pull()
	var inner Puller[T]
	return derive(s, func() (T, bool, error) {
		var zero T
		for {
			if inner != nil {
				v, ok, err := inner()
				if err != nil {
					return zero, false, err
				}
				if ok {
					return v, true, nil
				}
				inner = nil
			}
			item, ok, err := next()
			if err != nil || !ok {
				return zero, false, err
			}
			if inner, err = expand(item); err != nil {
				return zero, false, err
			}
		}
	})
}

// Divide groups consecutive elements, starting a new group at every
// element for which isHeader is true. With keepHeader the header opens its
// group; otherwise it is discarded. Empty groups are never produced.
func Divide[T any](s *Sequence[T], isHeader func(T) (bool, error), keepHeader bool) (*Sequence[[]T], error) {
	next := s.Pull()
	var group []T
	done := false
	return derive(s, func() ([]T, bool, error) {
		for !done {
			item, ok, err := next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				done = true
				if len(group) > 0 {
					out := group
					group = nil
					return out, true, nil
				}
				break
			}
			header, err := isHeader(item)
			if err != nil {
				return nil, false, err
			}
			if !header {
				group = append(group, item)
				continue
			}
			out := group
			group = nil
			if keepHeader {
				group = []T{item}
			}
			if len(out) > 0 {
				return out, true, nil
			}
		}
		return nil, false, nil
	})
}

// Zip combines s with others element-wise, padding exhausted inputs with
// pad until every input has ended.
func Zip[T any](s *Sequence[T], pad T, others ...*Sequence[T]) (*Sequence[[]T], error) {
	return zip(s, others, &pad)
}

// ZipShortest combines s with others element-wise, stopping at the end of
// the shortest input.
func ZipShortest[T any](s *Sequence[T], others ...*Sequence[T]) (*Sequence[[]T], error) {
	return zip(s, others, nil)
}

func zip[T any](s *Sequence[T], others []*Sequence[T], pad *T) (*Sequence[[]T], error) {
	pulls := []Puller[T]{s.Pull()}
	release := make([]func(), 0, len(others))
	for _, o := range others {
		pulls = append(pulls, o.Pull())
		release = append(release, o.Close)
	}
	ended := make([]bool, len(pulls))
	done := false
	next := func() ([]T, bool, error) {
		if done {
			return nil, false, nil
		}
		row := make([]T, len(pulls))
		live := false
		for i, pull := range pulls {
			if ended[i] {
				row[i] = *pad
				continue
			}
			v, ok, err := pull()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				if pad == nil {
					done = true
					return nil, false, nil
				}
				ended[i] = true
				row[i] = *pad
				continue
			}
			row[i] = v
			live = true
		}
		if !live {
			done = true
			return nil, false, nil
		}
		return row, true, nil
	}
	return derive(s, next, release...)
}

// SortBy returns a List ordered by the keys of its elements. Keys are
// computed once per element and the sort is stable.
func SortBy[T, K any](s *Sequence[T], key func(T) (K, error), cmp func(a, b K) (int, error)) (*Sequence[T], error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	type keyed struct {
		key  K
		item T
	}
	ks := make([]keyed, len(items))
	for i, item := range items {
		k, err := key(item)
		if err != nil {
			return nil, err
		}
		ks[i] = keyed{key: k, item: item}
	}
	var cmpErr error
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if cmpErr != nil {
			return 0
		}
		c, err := cmp(a.key, b.key)
		if err != nil {
			cmpErr = err
		}
		return c
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	out := make([]T, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return NewList(out), nil
}

// Sort returns a List ordered by cmp.
func (s *Sequence[T]) Sort(cmp func(a, b T) (int, error)) (*Sequence[T], error) {
	return SortBy(s, func(v T) (T, error) { return v, nil }, cmp)
}

// Reverse returns a List of the elements in reverse order.
func (s *Sequence[T]) Reverse() (*Sequence[T], error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	out := slices.Clone(items)
	slices.Reverse(out)
	return NewList(out), nil
}

// Uniq removes elements whose key has already been seen. A stable Uniq
// keeps first occurrences in input order; otherwise the order of the
// result is unspecified.
func Uniq[T any, K comparable](s *Sequence[T], stable bool, key func(T) (K, error)) (*Sequence[T], error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	if stable {
		seen := make(map[K]struct{}, len(items))
		out := make([]T, 0, len(items))
		for _, item := range items {
			k, err := key(item)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
		return NewList(out), nil
	}
	set := make(map[K]T, len(items))
	for _, item := range items {
		k, err := key(item)
		if err != nil {
			return nil, err
		}
		if _, dup := set[k]; !dup {
			set[k] = item
		}
	}
	return NewList(slices.Collect(maps.Values(set))), nil
}

// Convert applies fn to every element, producing a Sequence of another
// element type.
func Convert[T, U any](s *Sequence[T], fn func(T) (U, error)) (*Sequence[U], error) {
	next := s.Pull()
	return derive(s, func() (U, bool, error) {
		var zero U
		v, ok, err := next()
		if err != nil || !ok {
			return zero, false, err
		}
		out, err := fn(v)
		if err != nil {
			return zero, false, err
		}
		return out, true, nil
	})
}
