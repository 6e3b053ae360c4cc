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

// Package storage implements the per-partition columnar store: the
// typed column variants (C3) and the per-position vertical bitmap
// index over sequence columns (C4).
package storage

import "github.com/GenSpectrum/silo-go/bitmap"

// Kind enumerates the typed column variants a Partition can hold.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDate
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Column is the common interface every typed column variant
// implements. Type-specific filter primitives (equals, between,
// symbolAt, ...) live on the concrete types; compile.go type-asserts
// down to them once it has resolved an attribute reference against
// the schema.
type Column interface {
	// Kind reports the column's typed variant.
	Kind() Kind
	// NumValues returns the number of rows in the column, which
	// always equals the owning Partition's row count.
	NumValues() int
	// IsNull reports whether row holds the column's null sentinel.
	IsNull(row uint32) bool
	// IsNullBitmap returns the bitmap of every null row in the
	// column, serving explicit isNull/isNotNull predicates.
	IsNullBitmap() bitmap.COW
}

// reserve is a tiny helper build-time columns use to pre-size their
// backing slices; it mirrors the build-only reserve(n) builder
// method every column variant exposes.
func reserve[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s
	}
	grown := make([]T, len(s), n)
	copy(grown, s)
	return grown
}
