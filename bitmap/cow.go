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

package bitmap

// COW ("copy-on-write") is a handle on a Set that is either a
// read-only reference to a bitmap owned by a column index, or an
// owned, exclusively-held bitmap. Every mutating method upgrades a
// borrowed COW to an owned one on first write (cloning the
// underlying Set) so that mutating the result of an INDEX_SCAN can
// never corrupt the index it scanned.
//
// The zero value is an empty, owned COW.
type COW struct {
	set    *Set
	owned  bool
	frozen bool // not set or read by any COW method
}

// Borrow returns a COW that refers to set without copying it. set
// must not be mutated by the caller afterward; ownership transfer
// happens implicitly the first time the COW is written to.
func Borrow(set *Set) COW {
	if set == nil {
		set = New()
	}
	return COW{set: set, owned: false}
}

// Own returns a COW that takes exclusive ownership of set. The
// caller must not retain any other reference to set.
func Own(set *Set) COW {
	if set == nil {
		set = New()
	}
	return COW{set: set, owned: true}
}

// Empty returns an owned, empty COW.
func Empty() COW { return Own(New()) }

// Full returns an owned COW containing every row id in [0, n).
func Full(n uint32) COW { return Own(FullRange(n)) }

// Cardinality returns the number of row ids in c.
func (c COW) Cardinality() uint64 {
	if c.set == nil {
		return 0
	}
	return c.set.GetCardinality()
}

// Contains reports whether row is a member of c.
func (c COW) Contains(row uint32) bool {
	return c.set != nil && c.set.Contains(row)
}

// ToArray materializes c's members as a sorted slice. The returned
// slice is a fresh copy regardless of ownership.
func (c COW) ToArray() []uint32 {
	if c.set == nil {
		return nil
	}
	return c.set.ToArray()
}

// Iterator returns an ascending iterator over c's members.
func (c COW) Iterator() Iterator {
	if c.set == nil {
		return Iterator{}
	}
	return Iterator{it: c.set.Iterator()}
}

// Iterator wraps the underlying Roaring iterator so query code never
// imports the roaring package directly.
type Iterator struct {
	it interface {
		HasNext() bool
		Next() uint32
	}
}

// HasNext reports whether another row id is available.
func (it Iterator) HasNext() bool { return it.it != nil && it.it.HasNext() }

// Next returns the next row id in ascending order. Next must not be
// called once HasNext returns false.
func (it Iterator) Next() uint32 { return it.it.Next() }

// Raw returns the underlying Set for read-only use (e.g. handing a
// COW to Union/Intersect helpers or serializing it). Callers must
// not mutate the returned Set.
func (c COW) Raw() *Set {
	if c.set == nil {
		return New()
	}
	return c.set
}

// ensureOwned upgrades a borrowed COW to an owned one by cloning,
// returning the (now always owned) underlying Set ready for
// in-place mutation.
func (c *COW) ensureOwned() *Set {
	if c.set == nil {
		c.set = New()
		c.owned = true
	}
	if !c.owned {
		c.set = c.set.Clone()
		c.owned = true
	}
	return c.set
}

// UnionInPlace mutates c to be the union of c and other, upgrading
// c to owned storage if it was borrowed.
func (c *COW) UnionInPlace(other COW) {
	s := c.ensureOwned()
	if other.set != nil {
		s.Or(other.set)
	}
}

// IntersectInPlace mutates c to be the intersection of c and other.
func (c *COW) IntersectInPlace(other COW) {
	s := c.ensureOwned()
	if other.set == nil {
		s.Clear()
		return
	}
	s.And(other.set)
}

// DifferenceInPlace mutates c to remove every member of other.
func (c *COW) DifferenceInPlace(other COW) {
	s := c.ensureOwned()
	if other.set != nil {
		s.AndNot(other.set)
	}
}

// Complement returns FullRange(n) minus c, as a new owned COW; it
// never mutates c.
func (c COW) Complement(n uint32) COW {
	if c.set == nil {
		return Full(n)
	}
	flipped := c.set.Flip(0, uint64(n))
	return Own(flipped)
}

// Clone returns an independent owned copy of c.
func (c COW) Clone() COW {
	if c.set == nil {
		return Empty()
	}
	return Own(c.set.Clone())
}
