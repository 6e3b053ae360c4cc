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
	"fmt"
	"strings"

	"github.com/GenSpectrum/silo-go/bitmap"
)

// Intersection folds its Pos children via in-place intersection and
// its Neg children via in-place difference (subtracted, not
// intersected). RowCount is only consulted when Pos is empty — the
// shape Negate(Union) produces, which needs a starting FULL domain to
// subtract the (formerly positive) Union children from.
type Intersection struct {
	Pos, Neg []Operator
	RowCount uint32
}

func (Intersection) Kind() Kind { return KindIntersection }

func (in Intersection) Evaluate() bitmap.COW {
	var acc bitmap.COW
	if len(in.Pos) == 0 {
		acc = bitmap.Full(in.RowCount)
	} else {
		acc = in.Pos[0].Evaluate().Clone()
		for _, child := range in.Pos[1:] {
			acc.IntersectInPlace(child.Evaluate())
		}
	}
	for _, child := range in.Neg {
		acc.DifferenceInPlace(child.Evaluate())
	}
	return acc
}

func (in Intersection) String() string {
	parts := make([]string, 0, len(in.Pos)+len(in.Neg))
	for _, p := range in.Pos {
		parts = append(parts, p.String())
	}
	for _, n := range in.Neg {
		parts = append(parts, "!"+n.String())
	}
	return "Intersection(" + strings.Join(parts, ", ") + ")"
}

// Union is the many-way union of its children.
type Union struct {
	Children []Operator
}

func (Union) Kind() Kind { return KindUnion }

func (u Union) Evaluate() bitmap.COW {
	if len(u.Children) == 0 {
		return bitmap.Empty()
	}
	acc := u.Children[0].Evaluate().Clone()
	for _, child := range u.Children[1:] {
		acc.UnionInPlace(child.Evaluate())
	}
	return acc
}

func (u Union) String() string {
	parts := make([]string, len(u.Children))
	for i, c := range u.Children {
		parts[i] = c.String()
	}
	return "Union(" + strings.Join(parts, ", ") + ")"
}

// Complement evaluates to FULL(RowCount) minus its child.
type Complement struct {
	Child    Operator
	RowCount uint32
}

func (Complement) Kind() Kind { return KindComplement }

func (c Complement) Evaluate() bitmap.COW {
	return c.Child.Evaluate().Complement(c.RowCount)
}

func (c Complement) String() string {
	return "Complement(" + c.Child.String() + ")"
}

// Threshold evaluates to rows appearing in at least K (or, if Exact,
// exactly K) of its children's bitmaps, via an n-way counting merge.
type Threshold struct {
	Children []Operator
	K        int
	Exact    bool
}

func (Threshold) Kind() Kind { return KindThreshold }

func (t Threshold) Evaluate() bitmap.COW {
	counts := make(map[uint32]int)
	for _, child := range t.Children {
		it := child.Evaluate().Iterator()
		for it.HasNext() {
			counts[it.Next()]++
		}
	}
	result := bitmap.New()
	for row, count := range counts {
		if (t.Exact && count == t.K) || (!t.Exact && count >= t.K) {
			result.Add(row)
		}
	}
	return bitmap.Own(result)
}

func (t Threshold) String() string {
	op := ">="
	if t.Exact {
		op = "=="
	}
	return fmt.Sprintf("Threshold(k%s%d, n=%d)", op, t.K, len(t.Children))
}
