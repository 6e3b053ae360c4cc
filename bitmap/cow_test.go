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

package bitmap

import "testing"

func TestBorrowDoesNotMutateSource(t *testing.T) {
	src := FromArray([]uint32{1, 2, 3})
	c := Borrow(src)
	c.UnionInPlace(Own(FromArray([]uint32{4, 5})))
	if src.GetCardinality() != 3 {
		t.Fatalf("source bitmap was mutated: cardinality=%d", src.GetCardinality())
	}
	if c.Cardinality() != 5 {
		t.Fatalf("expected 5 members after union, got %d", c.Cardinality())
	}
}

func TestComplementCoversFullRange(t *testing.T) {
	c := Own(FromArray([]uint32{0, 2, 4}))
	comp := c.Complement(5)
	want := []uint32{1, 3}
	got := comp.ToArray()
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v; want %v", got, want)
		}
	}
}

func TestUnionManyWay(t *testing.T) {
	a := FromArray([]uint32{1, 2})
	b := FromArray([]uint32{2, 3})
	c := FromArray([]uint32{4})
	got := Union(a, b, c).ToArray()
	want := []uint32{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
}

func TestIntersectManyWay(t *testing.T) {
	a := FromArray([]uint32{1, 2, 3})
	b := FromArray([]uint32{2, 3, 4})
	c := FromArray([]uint32{2, 3, 5})
	got := Intersect(a, b, c).ToArray()
	want := []uint32{2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
}

func TestIteratorAscending(t *testing.T) {
	c := Own(FromArray([]uint32{5, 1, 3}))
	it := c.Iterator()
	var got []uint32
	for it.HasNext() {
		got = append(got, it.Next())
	}
	want := []uint32{1, 3, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v; want %v", got, want)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := Own(FromArray([]uint32{1}))
	b := a.Clone()
	b.UnionInPlace(Own(FromArray([]uint32{2})))
	if a.Cardinality() != 1 {
		t.Fatal("clone mutation leaked back to original")
	}
}
