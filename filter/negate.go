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

import "github.com/GenSpectrum/silo-go/bitmap"

// Negate returns an operator logically equivalent to the complement
// of op over a partition of rowCount rows. rowCount is passed in
// rather than read off op because several variants (Empty, Selection,
// Threshold, ...) carry no row-count field of their own; Evaluate
// stays pure and context-free, so negation is the one place that
// needs the domain size explicitly.
//
// This implements the compiler's negation-pushdown rewrite: pushing
// Not through the expression tree via negate() avoids ever
// materializing a COMPLEMENT node around a large subtree when a
// cheaper equivalent exists.
func Negate(op Operator, rowCount uint32) Operator {
	switch o := op.(type) {
	case Empty:
		return Full{RowCount: rowCount}
	case Full:
		return Empty{}
	case Complement:
		return o.Child
	case Intersection:
		children := make([]Operator, 0, len(o.Pos)+len(o.Neg))
		for _, p := range o.Pos {
			children = append(children, Negate(p, rowCount))
		}
		children = append(children, o.Neg...)
		return Union{Children: children}
	case Union:
		return Intersection{Neg: o.Children, RowCount: rowCount}
	case IndexScan:
		b := o.Bitmap
		return BitmapProducer{
			Label: "negated-index-scan",
			Produce: func() bitmap.COW {
				return bitmap.Borrow(b).Complement(rowCount)
			},
		}
	default:
		return Complement{Child: op, RowCount: rowCount}
	}
}
