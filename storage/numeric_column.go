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

package storage

import (
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"

	"github.com/GenSpectrum/silo-go/bitmap"
)

// equiIndexLimit bounds how many distinct values a Numeric column
// will maintain a precomputed equi-index for. Beyond that, equals
// and between fall back to a linear scan; most small-cardinality
// integer attributes (e.g. a handful of clade labels encoded as
// ints) comfortably fit under this, while high-cardinality
// measurements (coverage depth, a float Ct value) never do.
const equiIndexLimit = 4096

// Numeric is the shared implementation behind IntColumn and
// FloatColumn: a dense value array, a null bitmap (floats additionally
// use a NaN sentinel in the value slot itself, so a null float can
// be told apart from a real NaN measurement only by the bitmap),
// and an optional equi-index for low-cardinality columns.
type Numeric[T int64 | float64] struct {
	values []T
	nulls  *bitmap.Set
	index  map[T]*bitmap.Set // nil once the column exceeds equiIndexLimit
	sorted bool              // true once MarkSorted has declared ascending order
}

// NewNumeric returns an empty Numeric column.
func NewNumeric[T int64 | float64]() *Numeric[T] {
	return &Numeric[T]{nulls: bitmap.New(), index: make(map[T]*bitmap.Set)}
}

// Reserve pre-sizes the column's backing storage for n rows.
func (c *Numeric[T]) Reserve(n int) { c.values = reserve(c.values, n) }

// Insert appends value.
func (c *Numeric[T]) Insert(value T) {
	row := uint32(len(c.values))
	c.values = append(c.values, value)
	c.addToIndex(row, value)
}

// InsertNull appends the column's null sentinel (NaN for floats, the
// zero value recorded in the null bitmap for ints) and marks row
// null.
func (c *Numeric[T]) InsertNull() {
	row := uint32(len(c.values))
	var zero T
	if f, ok := any(&zero).(*float64); ok {
		*f = math.NaN()
	}
	c.values = append(c.values, zero)
	c.nulls.Add(row)
}

func (c *Numeric[T]) addToIndex(row uint32, value T) {
	if c.index == nil {
		return
	}
	b, ok := c.index[value]
	if !ok {
		if len(c.index) >= equiIndexLimit {
			c.index = nil // too many distinct values; stop maintaining it
			return
		}
		b = bitmap.New()
		c.index[value] = b
	}
	b.Add(row)
}

func (c *Numeric[T]) NumValues() int { return len(c.values) }

func (c *Numeric[T]) IsNull(row uint32) bool {
	return c.nulls.Contains(row)
}

func (c *Numeric[T]) IsNullBitmap() bitmap.COW { return bitmap.Borrow(c.nulls) }

// GetValue returns the value stored at row, which is meaningless
// (NaN for floats, 0 for ints) if IsNull(row) is true.
func (c *Numeric[T]) GetValue(row uint32) T { return c.values[row] }

// Equals returns the bitmap of rows equal to value. NULL never
// equals any value, including an explicit NaN comparison.
func (c *Numeric[T]) Equals(value T) bitmap.COW {
	if c.index != nil {
		if b, ok := c.index[value]; ok {
			return bitmap.Borrow(b)
		}
		return bitmap.Empty()
	}
	out := bitmap.New()
	for row, v := range c.values {
		if v == value && !c.nulls.Contains(uint32(row)) {
			out.Add(uint32(row))
		}
	}
	return bitmap.Own(out)
}

// Between returns the bitmap of rows whose value v satisfies
// lo <= v <= hi. Null rows never match.
func (c *Numeric[T]) Between(lo, hi T) bitmap.COW {
	if c.sorted {
		return c.betweenSorted(lo, hi)
	}
	if c.index != nil && len(c.index) > 0 {
		return c.betweenIndexed(lo, hi)
	}
	out := bitmap.New()
	for row, v := range c.values {
		if v >= lo && v <= hi && !c.nulls.Contains(uint32(row)) {
			out.Add(uint32(row))
		}
	}
	return bitmap.Own(out)
}

func (c *Numeric[T]) betweenIndexed(lo, hi T) bitmap.COW {
	keys := make([]T, 0, len(c.index))
	for k := range c.index {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	i, _ := slices.BinarySearch(keys, lo)
	sets := make([]*bitmap.Set, 0, len(keys)-i)
	for ; i < len(keys) && keys[i] <= hi; i++ {
		sets = append(sets, c.index[keys[i]])
	}
	return bitmap.Own(bitmap.Union(sets...))
}

// betweenSorted implements the sorted-column fast path: binary
// search for the [lowerBound, upperBound) row range instead of
// scanning every value, the same optimization DateColumn.Between
// uses when is_sorted is set.
func (c *Numeric[T]) betweenSorted(lo, hi T) bitmap.COW {
	lower := lowerBound(c.values, lo)
	upper := upperBound(c.values, hi)
	if lower >= upper {
		return bitmap.Empty()
	}
	out := bitmap.New()
	out.AddRange(uint64(lower), uint64(upper))
	if c.nulls.GetCardinality() > 0 {
		out.AndNot(c.nulls)
	}
	return bitmap.Own(out)
}

// MarkSorted declares that values are non-decreasing, enabling the
// binary-search fast path for Between. Callers must only set this
// when the build pipeline actually produced sorted input; Between's
// result is undefined otherwise.
func (c *Numeric[T]) MarkSorted() { c.sorted = true }

// lowerBound returns the first index in the sorted values at which v
// could be inserted without disturbing order, shared by Numeric's and
// DateColumn's sorted fast paths.
func lowerBound[T constraints.Ordered](values []T, v T) int {
	i, _ := slices.BinarySearch(values, v)
	return i
}

// upperBound returns the first index in the sorted values whose
// element is strictly greater than v. slices has no built-in for
// this half of the range search, so it stays hand-rolled.
func upperBound[T constraints.Ordered](values []T, v T) int {
	lo, hi := 0, len(values)
	for lo < hi {
		mid := (lo + hi) / 2
		if values[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// IntColumn is a Numeric column of 64-bit signed integers. It is a
// defined type wrapping Numeric[int64] (rather than a type alias)
// so it can carry its own Kind method; every other operation is
// promoted from the embedded Numeric.
type IntColumn struct{ *Numeric[int64] }

// NewIntColumn returns an empty IntColumn.
func NewIntColumn() *IntColumn { return &IntColumn{NewNumeric[int64]()} }

func (c *IntColumn) Kind() Kind { return KindInt }

// FloatColumn is a Numeric column of 64-bit floats. FloatColumn
// additionally treats a stored NaN as meaningless data whenever the
// null bitmap also marks the row, matching the "Float nulls
// represented as NaN sentinel" invariant.
type FloatColumn struct{ *Numeric[float64] }

// NewFloatColumn returns an empty FloatColumn.
func NewFloatColumn() *FloatColumn { return &FloatColumn{NewNumeric[float64]()} }

func (c *FloatColumn) Kind() Kind { return KindFloat }
