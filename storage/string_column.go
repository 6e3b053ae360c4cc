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
	"github.com/dchest/siphash"

	"github.com/GenSpectrum/silo-go/bitmap"
)

// nullID is the reserved dictionary id representing a null string
// value. Real values are always assigned ids >= 1, the same way an
// ion symbol table reserves its low ids for system symbols.
const nullID = 0

// dictShards is the number of buckets Dictionary shards its
// string->id table across, the same way an ion symbol table splits
// its lookup structure rather than growing one giant map.
const dictShards = 16

// Dictionary is a string<->id table shared by every StringColumn
// built over the same attribute within a partition. Ids are
// assigned in first-seen order and, once assigned, never change for
// the lifetime of the dictionary: callers may cache an id across
// many equals() calls.
type Dictionary struct {
	values  []string                   // id -> string, id 0 is unused (null)
	toindex [dictShards]map[string]int // string -> id, sharded by hash(s)
	seed0   uint64
	seed1   uint64
}

// NewDictionary returns an empty Dictionary.
func NewDictionary() *Dictionary {
	d := &Dictionary{
		values: []string{""},
		seed0:  0x736f6d6570736575,
		seed1:  0x646f72616e646f6d,
	}
	for i := range d.toindex {
		d.toindex[i] = make(map[string]int)
	}
	return d
}

// hash picks s's shard of toindex; siphash gives a fast,
// DoS-resistant string hash without pulling in a second generic
// hash-map implementation.
func (d *Dictionary) hash(s string) uint64 {
	return siphash.Hash(d.seed0, d.seed1, []byte(s))
}

// shard returns the toindex bucket s belongs to.
func (d *Dictionary) shard(s string) map[string]int {
	return d.toindex[d.hash(s)%dictShards]
}

// Intern assigns s a dictionary id, reusing an existing one if s has
// been seen before. The returned id is stable for the lifetime of d.
func (d *Dictionary) Intern(s string) int {
	shard := d.shard(s)
	if id, ok := shard[s]; ok {
		return id
	}
	id := len(d.values)
	d.values = append(d.values, s)
	shard[s] = id
	return id
}

// Lookup returns the id already assigned to s without interning it.
// It is the entry point compile.go uses to resolve a string
// constant: an unresolved value means no row can match, so the
// compiler folds the predicate to EMPTY instead of failing.
func (d *Dictionary) Lookup(s string) (int, bool) {
	id, ok := d.shard(s)[s]
	return id, ok
}

// String returns the value assigned to id, or "" if id is out of
// range.
func (d *Dictionary) String(id int) string {
	if id <= 0 || id >= len(d.values) {
		return ""
	}
	return d.values[id]
}

// Len returns the number of distinct non-null values interned.
func (d *Dictionary) Len() int { return len(d.values) - 1 }

// StringColumn is a dictionary-encoded column: a shared Dictionary
// plus a dense per-row id array, and an equi-index (one bitmap per
// distinct id) that makes equals() an O(1) index scan instead of a
// linear one.
type StringColumn struct {
	dict  *Dictionary
	ids   []int32
	index map[int32]*bitmap.Set // id -> rows with that id; built incrementally
}

// NewStringColumn returns an empty column backed by dict. Multiple
// columns (e.g. the same attribute across partitions) typically
// share one Dictionary built during the single preprocessing run,
// while the per-row id arrays and equi-indices stay per-partition.
func NewStringColumn(dict *Dictionary) *StringColumn {
	return &StringColumn{dict: dict, index: make(map[int32]*bitmap.Set)}
}

// Reserve pre-sizes the column's backing storage for n rows.
func (c *StringColumn) Reserve(n int) { c.ids = reserve(c.ids, n) }

// Insert appends a value, interning it in the shared dictionary if
// necessary, and updates the equi-index.
func (c *StringColumn) Insert(value string) {
	id := int32(c.dict.Intern(value))
	c.insertID(id)
}

// InsertNull appends the null sentinel.
func (c *StringColumn) InsertNull() { c.insertID(nullID) }

func (c *StringColumn) insertID(id int32) {
	row := uint32(len(c.ids))
	c.ids = append(c.ids, id)
	b, ok := c.index[id]
	if !ok {
		b = bitmap.New()
		c.index[id] = b
	}
	b.Add(row)
}

func (c *StringColumn) Kind() Kind       { return KindString }
func (c *StringColumn) NumValues() int   { return len(c.ids) }
func (c *StringColumn) IsNull(row uint32) bool {
	return int(row) < len(c.ids) && c.ids[row] == nullID
}

func (c *StringColumn) IsNullBitmap() bitmap.COW {
	if b, ok := c.index[nullID]; ok {
		return bitmap.Borrow(b)
	}
	return bitmap.Empty()
}

// GetValue returns the string stored at row.
func (c *StringColumn) GetValue(row uint32) string {
	if int(row) >= len(c.ids) {
		return ""
	}
	return c.dict.String(int(c.ids[row]))
}

// Dictionary returns the column's shared dictionary, so the
// compiler can resolve string constants before calling Equals.
func (c *StringColumn) Dictionary() *Dictionary { return c.dict }

// Equals returns the bitmap of rows whose value has the given
// dictionary id, served straight from the equi-index.
func (c *StringColumn) Equals(id int) bitmap.COW {
	if b, ok := c.index[int32(id)]; ok {
		return bitmap.Borrow(b)
	}
	return bitmap.Empty()
}
