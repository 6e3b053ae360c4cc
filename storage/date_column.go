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
	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/date"
)

// DateColumn stores one date.Day per row. If IsSorted is set (by the
// builder, declaring that rows were inserted in non-decreasing date
// order; the preprocessing pipeline builds its date columns unsorted
// and does not reorder rows), Between uses binary search over the
// dense value array instead of a linear scan.
type DateColumn struct {
	values   []date.Day
	isSorted bool
}

// NewDateColumn returns an empty DateColumn. isSorted declares
// whether the build pipeline guarantees non-decreasing insertion
// order; Between's fast path is only correct when that holds.
func NewDateColumn(isSorted bool) *DateColumn {
	return &DateColumn{isSorted: isSorted}
}

// Reserve pre-sizes the column's backing storage for n rows.
func (c *DateColumn) Reserve(n int) { c.values = reserve(c.values, n) }

// Insert appends a date.
func (c *DateColumn) Insert(value date.Day) { c.values = append(c.values, value) }

// InsertNull appends date.NullDay.
func (c *DateColumn) InsertNull() { c.values = append(c.values, date.NullDay) }

func (c *DateColumn) Kind() Kind     { return KindDate }
func (c *DateColumn) NumValues() int { return len(c.values) }

func (c *DateColumn) IsNull(row uint32) bool { return c.values[row].IsNull() }

func (c *DateColumn) IsNullBitmap() bitmap.COW {
	out := bitmap.New()
	for row, v := range c.values {
		if v.IsNull() {
			out.Add(uint32(row))
		}
	}
	return bitmap.Own(out)
}

// GetValue returns the date stored at row.
func (c *DateColumn) GetValue(row uint32) date.Day { return c.values[row] }

// IsSorted reports whether Between uses the binary-search fast
// path.
func (c *DateColumn) IsSorted() bool { return c.isSorted }

// Equals returns the bitmap of rows holding exactly value. value
// must not be date.NullDay; use IsNullBitmap for null predicates.
func (c *DateColumn) Equals(value date.Day) bitmap.COW {
	out := bitmap.New()
	for row, v := range c.values {
		if v == value {
			out.Add(uint32(row))
		}
	}
	return bitmap.Own(out)
}

// Between returns the bitmap of rows whose date falls in [from, to]
// inclusive. Null dates never match.
func (c *DateColumn) Between(from, to date.Day) bitmap.COW {
	if c.isSorted {
		return c.betweenSorted(from, to)
	}
	out := bitmap.New()
	for row, v := range c.values {
		if v.Between(from, to) {
			out.Add(uint32(row))
		}
	}
	return bitmap.Own(out)
}

// betweenSorted implements [lowerBound, upperBound) via binary
// search over the column's sorted date values, sharing the generic
// lowerBound/upperBound helpers Numeric's own sorted fast path uses.
func (c *DateColumn) betweenSorted(from, to date.Day) bitmap.COW {
	lower := lowerBound(c.values, from)
	upper := upperBound(c.values, to)
	if lower >= upper {
		return bitmap.Empty()
	}
	out := bitmap.New()
	out.AddRange(uint64(lower), uint64(upper))
	return bitmap.Own(out)
}
