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

// Package filter implements the per-partition bitmap operator tree
// the expression compiler lowers a filter expression into: a closed
// set of node kinds, each evaluating eagerly to a copy-on-write row-id
// bitmap, plus the structural rewrites (Negate) used during
// compilation.
//
// The source represents operators with virtual dispatch; here they
// are a sum of concrete Go types implementing a common interface,
// which keeps the rewrite rules (Negate, and the compiler's
// flattening/folding passes) simple pattern matches on a type switch
// instead of RTTI probing.
package filter

import "github.com/GenSpectrum/silo-go/bitmap"

// Kind discriminates an Operator's variant, used for toString and for
// the structural rewrites that need to recognize specific shapes
// (e.g. Negate matching on IndexScan or Intersection).
type Kind int

const (
	KindEmpty Kind = iota
	KindFull
	KindIndexScan
	KindBitmapProducer
	KindBitmapSelection
	KindRangeSelection
	KindSelection
	KindIntersection
	KindUnion
	KindComplement
	KindThreshold
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindFull:
		return "FULL"
	case KindIndexScan:
		return "INDEX_SCAN"
	case KindBitmapProducer:
		return "BITMAP_PRODUCER"
	case KindBitmapSelection:
		return "BITMAP_SELECTION"
	case KindRangeSelection:
		return "RANGE_SELECTION"
	case KindSelection:
		return "SELECTION"
	case KindIntersection:
		return "INTERSECTION"
	case KindUnion:
		return "UNION"
	case KindComplement:
		return "COMPLEMENT"
	case KindThreshold:
		return "THRESHOLD"
	default:
		return "UNKNOWN"
	}
}

// Operator is a single node in the filter operator tree. Evaluate is
// pure: it reads no mutable shared state and a given tree always
// yields the same bitmap, so callers may evaluate a tree more than
// once (e.g. once per action batch) without recompiling it.
type Operator interface {
	Kind() Kind
	Evaluate() bitmap.COW
	String() string
}
