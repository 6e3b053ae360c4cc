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

	"github.com/GenSpectrum/silo-go/bitmap"
)

// Empty always evaluates to the empty bitmap. The compiler emits it
// for predicates that can be proven unsatisfiable at compile time
// (e.g. equality against an unknown dictionary value).
type Empty struct{}

func (Empty) Kind() Kind             { return KindEmpty }
func (Empty) Evaluate() bitmap.COW   { return bitmap.Empty() }
func (Empty) String() string         { return "EMPTY" }

// Full always evaluates to every row id in [0, RowCount). RowCount is
// carried (rather than read from partition state at evaluate time) so
// that Evaluate stays pure and context-free.
type Full struct {
	RowCount uint32
}

func (Full) Kind() Kind               { return KindFull }
func (f Full) Evaluate() bitmap.COW   { return bitmap.Full(f.RowCount) }
func (f Full) String() string         { return fmt.Sprintf("FULL(%d)", f.RowCount) }

// IndexScan returns a borrowed view of a bitmap owned by a column
// index (a vertical-index symbol bitmap, a string equi-index entry,
// a lineage sublineage bitmap, ...). It never copies on evaluate;
// copying only happens if a downstream operator mutates the result.
type IndexScan struct {
	Bitmap *bitmap.Set
}

func (IndexScan) Kind() Kind             { return KindIndexScan }
func (s IndexScan) Evaluate() bitmap.COW { return bitmap.Borrow(s.Bitmap) }
func (s IndexScan) String() string {
	return fmt.Sprintf("IndexScan(cardinality=%d)", s.Bitmap.GetCardinality())
}

// BitmapProducer wraps an arbitrary closure that computes a bitmap on
// demand, always yielding an owned result. It is the fallback used
// when a structural rewrite (most notably Negate on an IndexScan)
// cannot cheaply express the result as another operator kind.
type BitmapProducer struct {
	Produce func() bitmap.COW
	Label   string
}

func (BitmapProducer) Kind() Kind             { return KindBitmapProducer }
func (p BitmapProducer) Evaluate() bitmap.COW { return p.Produce() }
func (p BitmapProducer) String() string {
	if p.Label != "" {
		return "BitmapProducer(" + p.Label + ")"
	}
	return "BitmapProducer"
}

// RangeSelection evaluates to the contiguous row-id range [Lo, Hi),
// already resolved by a sorted column's binary search (DateColumn or
// Numeric's between() fast path) — no per-row predicate evaluation is
// needed once the bounds are known.
type RangeSelection struct {
	Lo, Hi uint32
}

func (RangeSelection) Kind() Kind { return KindRangeSelection }
func (r RangeSelection) Evaluate() bitmap.COW {
	return bitmap.Own(bitmap.RangeOfRows(r.Lo, r.Hi))
}
func (r RangeSelection) String() string {
	return fmt.Sprintf("RangeSelection(%d,%d)", r.Lo, r.Hi)
}

func scanPredicate(domain uint32, predicate func(row uint32) bool) bitmap.COW {
	result := bitmap.New()
	for row := uint32(0); row < domain; row++ {
		if predicate(row) {
			result.Add(row)
		}
	}
	return bitmap.Own(result)
}

// Selection evaluates a per-row predicate against a typed column
// (equi-index misses, high-cardinality numeric comparisons, or any
// predicate without a dedicated index) by scanning every row in
// [0, Domain).
type Selection struct {
	Domain    uint32
	Predicate func(row uint32) bool
	Label     string
}

func (Selection) Kind() Kind             { return KindSelection }
func (s Selection) Evaluate() bitmap.COW { return scanPredicate(s.Domain, s.Predicate) }
func (s Selection) String() string {
	if s.Label != "" {
		return "Selection(" + s.Label + ")"
	}
	return "Selection"
}

// BitmapSelection is structurally identical to Selection but tags a
// predicate evaluated against an external vector supplied by the
// caller (e.g. a precomputed per-row score) rather than a stored
// column, matching the source's distinct BITMAP_SELECTION node kind
// used for debug/plan-printing purposes even though evaluation is the
// same scan.
type BitmapSelection struct {
	Domain    uint32
	Predicate func(row uint32) bool
	Label     string
}

func (BitmapSelection) Kind() Kind             { return KindBitmapSelection }
func (s BitmapSelection) Evaluate() bitmap.COW { return scanPredicate(s.Domain, s.Predicate) }
func (s BitmapSelection) String() string {
	if s.Label != "" {
		return "BitmapSelection(" + s.Label + ")"
	}
	return "BitmapSelection"
}
