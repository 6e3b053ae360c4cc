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

package heap

// Source produces a strictly increasing sequence of comparable
// keys. Peek returns false once the source is exhausted.
type Source[K any] interface {
	Peek() (K, bool)
	Advance()
}

// item pairs a Source with its most-recently-peeked key so the
// heap can compare sources without re-peeking on every comparison.
type item[K any] struct {
	src Source[K]
	key K
}

// Merge performs a k-way merge across srcs in ascending key order,
// calling emit once per key in the merged order. less must define
// a strict total order over K.
//
// This is the shape the action evaluator uses to produce a single
// globally row-ordered stream out of N independently-ordered
// per-partition batch streams (ORDER_BY queries); each partition
// contributes a Source and the heap picks the smallest head across
// all of them in O(log N) per emitted key, rather than concatenating
// and sorting the full result.
func Merge[K any](srcs []Source[K], less func(a, b K) bool, emit func(K)) {
	items := make([]item[K], 0, len(srcs))
	for _, s := range srcs {
		if k, ok := s.Peek(); ok {
			items = append(items, item[K]{src: s, key: k})
		}
	}
	il := func(a, b item[K]) bool { return less(a.key, b.key) }
	OrderSlice(items, il)
	for len(items) > 0 {
		min := items[0]
		emit(min.key)
		min.src.Advance()
		if k, ok := min.src.Peek(); ok {
			items[0] = item[K]{src: min.src, key: k}
			FixSlice(items, 0, il)
		} else {
			// source exhausted: drop it from the heap
			PopSlice(&items, il)
		}
	}
}
