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

package lineage

import "github.com/GenSpectrum/silo-go/bitmap"

// Index maintains, per lineage Idx, the bitmap of rows whose lineage
// is that node or a descendant of it (the "sublineage" bitmap), plus
// a separate bitmap of rows whose lineage is exactly that node. Both
// are built once, at insert time, by walking each row's ancestor
// chain - there is no recursion at query time.
type Index struct {
	tree       *Tree
	sublineage map[Idx]*bitmap.Set
	exact      map[Idx]*bitmap.Set
}

// NewIndex returns an empty index over tree.
func NewIndex(tree *Tree) *Index {
	return &Index{
		tree:       tree,
		sublineage: make(map[Idx]*bitmap.Set),
		exact:      make(map[Idx]*bitmap.Set),
	}
}

// Insert records that row's lineage is leaf: row is added to leaf's
// exact bitmap and to the sublineage bitmap of leaf and of every
// ancestor up to the root.
func (idx *Index) Insert(row uint32, leaf Idx) {
	if b, ok := idx.exact[leaf]; ok {
		b.Add(row)
	} else {
		b = bitmap.New()
		b.Add(row)
		idx.exact[leaf] = b
	}

	current := leaf
	for {
		if b, ok := idx.sublineage[current]; ok {
			b.Add(row)
		} else {
			b = bitmap.New()
			b.Add(row)
			idx.sublineage[current] = b
		}
		parent, ok := idx.tree.Parent(current)
		if !ok {
			break
		}
		current = parent
	}
}

// FilterIncludingSublineages returns the bitmap of rows whose lineage
// is value or a descendant of value, and false if value has no rows
// anywhere in its subtree.
func (idx *Index) FilterIncludingSublineages(value Idx) (bitmap.COW, bool) {
	b, ok := idx.sublineage[value]
	if !ok {
		return bitmap.COW{}, false
	}
	return bitmap.Borrow(b), true
}

// RowLeaves inverts the index back into a per-row leaf assignment by
// reading off the exact bitmaps, which partition [0, rowCount) without
// overlap. Rows with no lineage ever recorded are left at -1. This is
// the form a persisted snapshot stores, since it replays cleanly
// through Insert without needing direct bitmap access.
func (idx *Index) RowLeaves(rowCount uint32) []Idx {
	out := make([]Idx, rowCount)
	for i := range out {
		out[i] = -1
	}
	for leaf, b := range idx.exact {
		it := bitmap.Borrow(b).Iterator()
		for it.HasNext() {
			out[it.Next()] = leaf
		}
	}
	return out
}

// FilterExactly returns the bitmap of rows whose lineage is exactly
// value (no descendants). A value with no exact matches yields an
// empty bitmap, not an error, mirroring how an unresolvable dictionary
// value yields EMPTY elsewhere in the filter compiler.
func (idx *Index) FilterExactly(value Idx) bitmap.COW {
	b, ok := idx.exact[value]
	if !ok {
		return bitmap.Empty()
	}
	return bitmap.Borrow(b)
}
