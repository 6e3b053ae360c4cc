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

// Package bitmap provides the compressed row-id set primitive that
// every column index and filter operator in the query engine
// evaluates down to, plus a copy-on-write handle on top of it that
// lets an INDEX_SCAN operator hand out a stored bitmap without
// copying until a caller actually needs to mutate it.
package bitmap

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is the underlying compressed-sorted-integer set. It is a thin
// rename of roaring.Bitmap: Roaring's run/array/bitmap container
// scheme is exactly the "compressed sorted integer set" the store
// needs, and its WriteTo/ReadFrom wire format is already portable
// across endianness, so there is no reason to reimplement one.
// Callers outside this package should never depend on Set's
// concrete representation; use COW.
type Set = roaring.Bitmap

// New returns an empty Set.
func New() *Set { return roaring.New() }

// FromArray returns a Set containing exactly the given row ids.
func FromArray(rows []uint32) *Set {
	return roaring.BitmapOf(rows...)
}

// FullRange returns a Set containing every row id in [0, n).
func FullRange(n uint32) *Set {
	if n == 0 {
		return roaring.New()
	}
	b := roaring.New()
	b.AddRange(0, uint64(n))
	return b
}

// Union returns the many-way union of sets, computed with Roaring's
// container-aware FastOr merge rather than an N-way pairwise Or
// loop; this is what satisfies the bitmap primitive's "efficient
// many-way union" requirement.
func Union(sets ...*Set) *Set {
	switch len(sets) {
	case 0:
		return roaring.New()
	case 1:
		return sets[0].Clone()
	default:
		return roaring.FastOr(sets...)
	}
}

// Intersect returns the many-way intersection of sets.
func Intersect(sets ...*Set) *Set {
	switch len(sets) {
	case 0:
		return roaring.New()
	case 1:
		return sets[0].Clone()
	default:
		return roaring.FastAnd(sets...)
	}
}

// RangeOfRows returns a Set containing every row id in [lo, hi). It
// backs RANGE_SELECTION, where a sorted column's binary search has
// already reduced a between() predicate to a contiguous row-id range.
func RangeOfRows(lo, hi uint32) *Set {
	if hi <= lo {
		return roaring.New()
	}
	b := roaring.New()
	b.AddRange(uint64(lo), uint64(hi))
	return b
}

// WriteTo serializes b in Roaring's portable binary format.
func WriteTo(b *Set, w io.Writer) (int64, error) {
	return b.WriteTo(w)
}

// ReadFrom deserializes a Set written by WriteTo.
func ReadFrom(r io.Reader) (*Set, error) {
	b := roaring.New()
	if _, err := b.ReadFrom(r); err != nil {
		return nil, err
	}
	return b, nil
}
