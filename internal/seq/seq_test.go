package seq

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(i int) *int { return &i }

// stream returns a Stream over items and a counter of pulled elements.
func stream(items ...int) (*Sequence[int], *int) {
	pulled := 0
	next := pullSlice(items)
	return NewStream(func() (int, bool, error) {
		v, ok, err := next()
		if ok {
			pulled++
		}
		return v, ok, err
	}, nil), &pulled
}

// naturals is an unbounded Stream 0, 1, 2, ...
func naturals() *Sequence[int] {
	i := 0
	return NewStream(func() (int, bool, error) {
		i++
		return i - 1, true, nil
	}, nil)
}

func rng(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func items[T any](t *testing.T, s *Sequence[T]) []T {
	t.Helper()
	out, err := s.Items()
	require.NoError(t, err)
	return out
}

func intCmp(a, b int) (int, error) { return cmp.Compare(a, b), nil }

func TestListIsReiterable(t *testing.T) {
	s := NewList([]int{1, 2, 3})
	require.Equal(t, []int{1, 2, 3}, items(t, s))
	require.Equal(t, []int{1, 2, 3}, items(t, s))
	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.False(t, s.IsStream())
}

func TestStreamIsSinglePass(t *testing.T) {
	s, _ := stream(1, 2, 3)
	require.True(t, s.IsStream())
	require.Equal(t, []int{1, 2, 3}, items(t, s))
	require.Empty(t, items(t, s))
}

func TestStreamTruthKeepsHead(t *testing.T) {
	s, pulled := stream(7, 8)
	ok, err := s.Truth()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, *pulled)
	ok, _ = s.Truth()
	require.True(t, ok)
	require.Equal(t, 1, *pulled)
	require.Equal(t, []int{7, 8}, items(t, s))

	empty, _ := stream()
	ok, err = empty.Truth()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMapIndexCountsDroppedElements(t *testing.T) {
	s := NewList([]int{10, 11, 12, 13})
	var seen []int
	out, err := s.Map(func(v, i int) (int, bool, error) {
		seen = append(seen, i)
		return v * 2, v%2 == 0, nil
	})
	require.NoError(t, err)
	require.False(t, out.IsStream())
	require.Equal(t, []int{20, 24}, items(t, out))
	require.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestMapOnStreamIsLazy(t *testing.T) {
	calls := 0
	out, err := naturals().Map(func(v, _ int) (int, bool, error) {
		calls++
		return v * v, true, nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, calls)
	head, err := out.Slice(nil, ptr(4), 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 4, 9}, items(t, head))
	require.Equal(t, 4, calls)
}

func TestMapError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewList([]int{1, 2}).Map(func(v, _ int) (int, bool, error) {
		return 0, false, boom
	})
	require.ErrorIs(t, err, boom)

	out, err := naturals().Map(func(v, _ int) (int, bool, error) {
		if v == 2 {
			return 0, false, boom
		}
		return v, true, nil
	})
	require.NoError(t, err)
	_, err = out.Items()
	require.ErrorIs(t, err, boom)
}

func TestFilter(t *testing.T) {
	out, err := NewList(rng(10)).Filter(func(v int) (bool, error) { return v%3 == 0, nil })
	require.NoError(t, err)
	require.Equal(t, []int{0, 3, 6, 9}, items(t, out))
}

func TestFlatten(t *testing.T) {
	s := NewList([]string{"a\nb", "c", "", "d\ne\nf"})
	out, err := s.Flatten(func(v string) ([]string, error) {
		if v == "" {
			return nil, nil
		}
		return strings.Split(v, "\n"), nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, items(t, out))
}

func TestMergeIsLazyOverStreams(t *testing.T) {
	out, err := naturals().Merge(func(v int) (Puller[int], error) {
		return pullSlice([]int{v, v}), nil
	})
	require.NoError(t, err)
	head, err := out.Slice(nil, ptr(5), 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 1, 1, 2}, items(t, head))
}

func TestDivide(t *testing.T) {
	lines := NewList([]string{"leading", "----", "x1", "x2", "----", "y1", "y2"})
	isHeader := func(v string) (bool, error) { return v == "----", nil }

	out, err := Divide(lines, isHeader, true)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"leading"}, {"----", "x1", "x2"}, {"----", "y1", "y2"}}, items(t, out))

	out, err = Divide(lines, isHeader, false)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"leading"}, {"x1", "x2"}, {"y1", "y2"}}, items(t, out))

	out, err = Divide(NewList([]string{"----", "----", "a"}), isHeader, false)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a"}}, items(t, out))
}

func TestZip(t *testing.T) {
	a := NewList([]int{1, 2, 3})
	b := NewList([]int{10, 20})

	out, err := Zip(a, -1, b)
	require.NoError(t, err)
	require.Equal(t, [][]int{{1, 10}, {2, 20}, {3, -1}}, items(t, out))

	out, err = ZipShortest(a, b)
	require.NoError(t, err)
	require.Equal(t, [][]int{{1, 10}, {2, 20}}, items(t, out))
}

func TestZipShortestWithUnboundedStream(t *testing.T) {
	out, err := ZipShortest(NewList([]int{5, 6}), naturals())
	require.NoError(t, err)
	require.Equal(t, [][]int{{5, 0}, {6, 1}}, items(t, out))
}

func TestSortAndReverse(t *testing.T) {
	s, _ := stream(3, 1, 2)
	out, err := s.Sort(intCmp)
	require.NoError(t, err)
	require.False(t, out.IsStream())
	require.Equal(t, []int{1, 2, 3}, items(t, out))

	rev, err := NewList([]int{1, 2, 3}).Reverse()
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 1}, items(t, rev))
}

func TestSortByIsStable(t *testing.T) {
	words := NewList([]string{"bb", "a", "cc", "d", "eee"})
	out, err := SortBy(words, func(v string) (int, error) { return len(v), nil }, intCmp)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "d", "bb", "cc", "eee"}, items(t, out))
}

func TestSortError(t *testing.T) {
	boom := errors.New("incomparable")
	_, err := NewList([]int{2, 1}).Sort(func(a, b int) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
}

func TestUniq(t *testing.T) {
	s := NewList([]int{3, 1, 3, 2, 1})
	id := func(v int) (int, error) { return v, nil }

	out, err := Uniq(s, true, id)
	require.NoError(t, err)
	require.Equal(t, []int{3, 1, 2}, items(t, out))

	out, err = Uniq(s, false, id)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2, 3}, items(t, out))
}

func TestConvert(t *testing.T) {
	out, err := Convert(NewList([]int{1, 2}), func(v int) (string, error) {
		return fmt.Sprint(v), nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, items(t, out))
}

func TestGet(t *testing.T) {
	l := NewList([]int{1, 2, 3})
	v, err := l.Get(-1)
	require.NoError(t, err)
	require.Equal(t, 3, v)
	_, err = l.Get(3)
	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, 3, ie.Index)

	v, err = naturals().Get(5)
	require.NoError(t, err)
	require.Equal(t, 5, v)

	s, _ := stream(1, 2, 3)
	v, err = s.Get(-2)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	s, _ = stream(1, 2)
	_, err = s.Get(-3)
	require.ErrorAs(t, err, &ie)
}

func TestListSlice(t *testing.T) {
	l := NewList(rng(10))
	for _, tc := range []struct {
		start, stop *int
		step        int
		want        []int
	}{
		{nil, ptr(3), 1, []int{0, 1, 2}},
		{ptr(-3), nil, 1, []int{7, 8, 9}},
		{ptr(2), ptr(-5), 1, []int{2, 3, 4}},
		{ptr(-4), ptr(-1), 1, []int{6, 7, 8}},
		{ptr(-4), ptr(8), 1, []int{6, 7}},
		{nil, nil, 3, []int{0, 3, 6, 9}},
		{nil, nil, -1, []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}},
		{ptr(8), ptr(2), -2, []int{8, 6, 4}},
		{ptr(5), ptr(2), 1, []int{}},
		{ptr(-100), ptr(100), 0, rng(10)},
	} {
		t.Run(fmt.Sprintf("%v:%v:%d", deref(tc.start), deref(tc.stop), tc.step), func(t *testing.T) {
			out, err := l.Slice(tc.start, tc.stop, tc.step)
			require.NoError(t, err)
			require.False(t, out.IsStream())
			require.Equal(t, tc.want, items(t, out))
		})
	}
}

func deref(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

// TestStreamSliceMatchesList checks that every bound combination gives the
// same result on a Stream as on a List.
func TestStreamSliceMatchesList(t *testing.T) {
	bounds := []*int{nil, ptr(0), ptr(2), ptr(5), ptr(12), ptr(-1), ptr(-3), ptr(-7), ptr(-12)}
	for _, n := range []int{0, 1, 7} {
		data := rng(n)
		for _, start := range bounds {
			for _, stop := range bounds {
				for _, step := range []int{1, 2, 3} {
					name := fmt.Sprintf("n=%d[%s:%s:%d]", n, deref(start), deref(stop), step)
					want := sliceItems(data, start, stop, step)
					s, _ := stream(data...)
					out, err := s.Slice(start, stop, step)
					require.NoError(t, err, name)
					require.True(t, out.IsStream(), name)
					got, err := out.Items()
					require.NoError(t, err, name)
					if len(want) == 0 {
						require.Empty(t, got, name)
					} else {
						require.Equal(t, want, got, name)
					}
				}
			}
		}
	}
}

func TestStreamSliceIsLazy(t *testing.T) {
	s, pulled := stream(rng(100)...)
	out, err := s.Slice(ptr(10), ptr(13), 1)
	require.NoError(t, err)
	require.Equal(t, 0, *pulled)
	require.Equal(t, []int{10, 11, 12}, items(t, out))
	require.Equal(t, 13, *pulled)
}

func TestUnboundedStreamHead(t *testing.T) {
	out, err := naturals().Slice(nil, ptr(4), 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, items(t, out))

	out, err = naturals().Slice(ptr(3), nil, 2)
	require.NoError(t, err)
	head, err := out.Slice(nil, ptr(3), 1)
	require.NoError(t, err)
	require.Equal(t, []int{3, 5, 7}, items(t, head))
}

func TestTrailingWindowHoldsBackOnlyStop(t *testing.T) {
	s, pulled := stream(rng(10)...)
	out, err := s.Slice(nil, ptr(-3), 1)
	require.NoError(t, err)
	v, ok, err := out.Pull()()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, v)
	require.Equal(t, 4, *pulled)
}

func TestCloseReleasesAncestors(t *testing.T) {
	released := 0
	base := NewStream(pullSlice(rng(5)), func() { released++ })
	mapped, err := base.Map(func(v, _ int) (int, bool, error) { return v, true, nil })
	require.NoError(t, err)
	mapped.Close()
	mapped.Close()
	require.Equal(t, 1, released)
	require.Empty(t, items(t, base))
}

func TestFromSeq(t *testing.T) {
	s := FromSeq(func(yield func(int) bool) {
		for i := 0; ; i++ {
			if !yield(i) {
				return
			}
		}
	})
	out, err := s.Slice(nil, ptr(3), 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, items(t, out))
	s.Close()
}

func TestIndices(t *testing.T) {
	lo, hi := Indices(nil, nil, -1, 4)
	require.Equal(t, 3, lo)
	require.Equal(t, -1, hi)
	lo, hi = Indices(ptr(-10), ptr(10), 1, 4)
	require.Equal(t, 0, lo)
	require.Equal(t, 4, hi)
}
