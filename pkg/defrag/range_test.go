package defrag

import "testing"

func TestByteRangeConnects(t *testing.T) {
	s := byteRange{Start: 5, End: 9}
	cases := []struct {
		value int
		want  bool
	}{
		{3, false}, {4, false}, {5, true}, {6, true},
		{7, true}, {8, true}, {9, true}, {10, false}, {11, false},
	}
	for _, c := range cases {
		if got := s.connects(c.value); got != c.want {
			t.Errorf("connects(%d) = %v, want %v", c.value, got, c.want)
		}
	}
}

type rangePair struct{ start, end int }

func TestByteRangeMerge(t *testing.T) {
	cases := []struct {
		a, b rangePair
		want *rangePair
	}{
		{rangePair{0, 1}, rangePair{1, 2}, &rangePair{0, 2}},
		{rangePair{0, 1}, rangePair{2, 3}, nil},
		{rangePair{3, 7}, rangePair{1, 2}, nil},
		{rangePair{3, 7}, rangePair{1, 3}, &rangePair{1, 7}},
		{rangePair{3, 7}, rangePair{1, 4}, &rangePair{1, 7}},
		{rangePair{3, 7}, rangePair{1, 7}, &rangePair{1, 7}},
		{rangePair{3, 7}, rangePair{1, 8}, &rangePair{1, 8}},
	}
	for _, c := range cases {
		a := byteRange{Start: c.a.start, End: c.a.end}
		b := byteRange{Start: c.b.start, End: c.b.end}

		got, ok := a.merge(b)
		checkMerge(t, got, ok, c.want)

		got, ok = b.merge(a)
		checkMerge(t, got, ok, c.want)
	}
}

func checkMerge(t *testing.T, got byteRange, ok bool, want *rangePair) {
	t.Helper()
	if want == nil {
		if ok {
			t.Errorf("merge() = %+v, want no merge", got)
		}
		return
	}
	if !ok || got.Start != want.start || got.End != want.end {
		t.Errorf("merge() = (%+v, %v), want ({%d %d}, true)", got, ok, want.start, want.end)
	}
}
