// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package heap

import "testing"

type sliceSource struct {
	vals []int
	pos  int
}

func (s *sliceSource) Peek() (int, bool) {
	if s.pos >= len(s.vals) {
		return 0, false
	}
	return s.vals[s.pos], true
}

func (s *sliceSource) Advance() { s.pos++ }

func TestMergeOrdersAcrossSources(t *testing.T) {
	a := &sliceSource{vals: []int{1, 4, 9}}
	b := &sliceSource{vals: []int{2, 3, 10}}
	c := &sliceSource{vals: []int{5, 6, 7, 8}}
	srcs := []Source[int]{a, b, c}
	var got []int
	Merge(srcs, func(x, y int) bool { return x < y }, func(k int) {
		got = append(got, k)
	})
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v; want %v", got, want)
		}
	}
}

func TestMergeEmpty(t *testing.T) {
	var got []int
	Merge[int](nil, func(x, y int) bool { return x < y }, func(k int) { got = append(got, k) })
	if len(got) != 0 {
		t.Fatal("expected no output")
	}
}
