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

package filter

import (
	"testing"

	"github.com/GenSpectrum/silo-go/bitmap"
)

func eq(t *testing.T, got bitmap.COW, want []uint32) {
	t.Helper()
	a := got.ToArray()
	if len(a) != len(want) {
		t.Fatalf("got %v; want %v", a, want)
	}
	for i := range want {
		if a[i] != want[i] {
			t.Fatalf("got %v; want %v", a, want)
		}
	}
}

func scan(bitmaps map[byte]*bitmap.Set, b byte) Operator {
	return IndexScan{Bitmap: bitmaps[b]}
}

// threeRowFixture mirrors spec's worked scenario: position 1 values
// are [C,T,C], so symbol C at position 1 holds rows {0,2} (matching
// TestScenarioNucleotideEquals in storage/vindex_test.go).
func threeRowFixture() map[byte]*bitmap.Set {
	tb := bitmap.FromArray([]uint32{1})
	c := bitmap.FromArray([]uint32{0, 2})
	g := bitmap.FromArray([]uint32{})
	return map[byte]*bitmap.Set{'T': tb, 'C': c, 'G': g}
}

func TestScenarioNucleotideEqualsOperator(t *testing.T) {
	bitmaps := threeRowFixture()
	op := scan(bitmaps, 'C')
	eq(t, op.Evaluate(), []uint32{0, 2})
}

// TestScenarioNot is spec scenario 4: Not(NucleotideEquals{2,G}) over
// a 3-row partition where position 2 is G only for rows {0,1} -> {2}.
func TestScenarioNot(t *testing.T) {
	g2 := bitmap.FromArray([]uint32{0, 1})
	op := IndexScan{Bitmap: g2}
	negated := Negate(op, 3)
	eq(t, negated.Evaluate(), []uint32{2})
}

func TestDoubleNegateIsIdentity(t *testing.T) {
	cases := []Operator{
		Empty{},
		Full{RowCount: 5},
		IndexScan{Bitmap: bitmap.FromArray([]uint32{1, 3})},
		Intersection{Pos: []Operator{IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1, 2})}},
			Neg: []Operator{IndexScan{Bitmap: bitmap.FromArray([]uint32{1})}}},
		Union{Children: []Operator{
			IndexScan{Bitmap: bitmap.FromArray([]uint32{0})},
			IndexScan{Bitmap: bitmap.FromArray([]uint32{4})},
		}},
	}
	for _, op := range cases {
		want := op.Evaluate().ToArray()
		got := Negate(Negate(op, 5), 5).Evaluate().ToArray()
		if len(got) != len(want) {
			t.Fatalf("%s: double negate changed result: got %v want %v", op, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: double negate changed result: got %v want %v", op, got, want)
			}
		}
	}
}

func TestIntersectionMatchesAnd(t *testing.T) {
	a := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1, 2, 3})}
	b := IndexScan{Bitmap: bitmap.FromArray([]uint32{2, 3, 4})}
	in := Intersection{Pos: []Operator{a, b}}
	eq(t, in.Evaluate(), []uint32{2, 3})
}

func TestUnionMatchesOr(t *testing.T) {
	a := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1})}
	b := IndexScan{Bitmap: bitmap.FromArray([]uint32{1, 2})}
	u := Union{Children: []Operator{a, b}}
	eq(t, u.Evaluate(), []uint32{0, 1, 2})
}

func TestIntersectionNegatedChildIsDifference(t *testing.T) {
	a := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1, 2, 3})}
	notB := IndexScan{Bitmap: bitmap.FromArray([]uint32{2})}
	in := Intersection{Pos: []Operator{a}, Neg: []Operator{notB}}
	eq(t, in.Evaluate(), []uint32{0, 1, 3})
}

func TestComplementIsFullMinusChild(t *testing.T) {
	child := IndexScan{Bitmap: bitmap.FromArray([]uint32{1, 3})}
	comp := Complement{Child: child, RowCount: 5}
	eq(t, comp.Evaluate(), []uint32{0, 2, 4})
}

// TestScenarioNOf applies the formula
// (NOf(k,exact=false,c...).evaluate() = {r : #{i: r in ci} >= k}) to
// a worked 3-row fixture (row0=[A,C,G], row1=[A,T,G],
// row2=[C,C,T]) for NOf(k:2, exact:false, [Eq(0,A), Eq(1,C), Eq(2,G)]):
// row0 matches all three predicates, row1 matches Eq(0,A) and Eq(2,G),
// row2 matches only Eq(1,C) -> counts are 3,2,1 -> {0,1}.
func TestScenarioNOf(t *testing.T) {
	eq0 := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1})} // pos0=A
	eq1 := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 2})} // pos1=C
	eq2 := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1})} // pos2=G
	th := Threshold{Children: []Operator{eq0, eq1, eq2}, K: 2, Exact: false}
	eq(t, th.Evaluate(), []uint32{0, 1})

	th3 := Threshold{Children: []Operator{eq0, eq1, eq2}, K: 3, Exact: false}
	eq(t, th3.Evaluate(), []uint32{0})
}

func TestThresholdExact(t *testing.T) {
	a := IndexScan{Bitmap: bitmap.FromArray([]uint32{0, 1})}
	b := IndexScan{Bitmap: bitmap.FromArray([]uint32{1, 2})}
	c := IndexScan{Bitmap: bitmap.FromArray([]uint32{1})}
	th := Threshold{Children: []Operator{a, b, c}, K: 2, Exact: true}
	// row 0: in a only (1) -- excluded
	// row 1: in a,b,c (3) -- excluded (exact 2 required)
	// row 2: in b only (1) -- excluded
	eq(t, th.Evaluate(), []uint32{})
}

func TestRangeSelection(t *testing.T) {
	r := RangeSelection{Lo: 2, Hi: 5}
	eq(t, r.Evaluate(), []uint32{2, 3, 4})
}

func TestSelectionScan(t *testing.T) {
	s := Selection{Domain: 5, Predicate: func(row uint32) bool { return row%2 == 0 }}
	eq(t, s.Evaluate(), []uint32{0, 2, 4})
}

func TestIndexScanBorrowDoesNotMutateSource(t *testing.T) {
	src := bitmap.FromArray([]uint32{1, 2, 3})
	scan := IndexScan{Bitmap: src}
	result := scan.Evaluate()
	result.UnionInPlace(bitmap.Own(bitmap.FromArray([]uint32{99})))
	if src.Contains(99) {
		t.Fatal("mutating the evaluated result must not mutate the stored index bitmap")
	}
}
