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

import "github.com/GenSpectrum/silo-go/bitmap"

// BoolColumn is a three-valued (true/false/null) column. Rather
// than a packed tribool array, it keeps one bitmap per value: this
// makes Equals an O(1) index scan for all three states and
// IsNullBitmap a plain field access.
type BoolColumn struct {
	n     int
	trues *bitmap.Set
	falses *bitmap.Set
	nulls *bitmap.Set
}

// NewBoolColumn returns an empty BoolColumn.
func NewBoolColumn() *BoolColumn {
	return &BoolColumn{trues: bitmap.New(), falses: bitmap.New(), nulls: bitmap.New()}
}

// Insert appends a definite true/false value.
func (c *BoolColumn) Insert(value bool) {
	row := uint32(c.n)
	c.n++
	if value {
		c.trues.Add(row)
	} else {
		c.falses.Add(row)
	}
}

// InsertNull appends a null value.
func (c *BoolColumn) InsertNull() {
	c.nulls.Add(uint32(c.n))
	c.n++
}

func (c *BoolColumn) Kind() Kind     { return KindBool }
func (c *BoolColumn) NumValues() int { return c.n }

func (c *BoolColumn) IsNull(row uint32) bool { return c.nulls.Contains(row) }

func (c *BoolColumn) IsNullBitmap() bitmap.COW { return bitmap.Borrow(c.nulls) }

// GetValue returns the value at row and whether it is non-null.
func (c *BoolColumn) GetValue(row uint32) (value bool, ok bool) {
	if c.nulls.Contains(row) {
		return false, false
	}
	return c.trues.Contains(row), true
}

// Equals returns the bitmap of rows equal to the tri-state value
// true, false, or null (via the dedicated IsNull predicate path
// rather than Equals, matching the null-comparison policy that
// equality predicates never themselves select null rows).
func (c *BoolColumn) Equals(value bool) bitmap.COW {
	if value {
		return bitmap.Borrow(c.trues)
	}
	return bitmap.Borrow(c.falses)
}
