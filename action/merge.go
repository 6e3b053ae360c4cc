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

package action

import (
	"sort"

	"github.com/GenSpectrum/silo-go/heap"
)

// sliceSource adapts an already-sorted slice to heap.Source, letting
// MergeDetails/MergeFasta reuse the same k-way merge the lineage
// executor would use for any other ordered-stream reduction.
type sliceSource[T any] struct {
	items []T
	pos   int
}

func (s *sliceSource[T]) Peek() (T, bool) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[s.pos], true
}

func (s *sliceSource[T]) Advance() { s.pos++ }

// MergeDetails combines per-partition Details results. With no
// OrderBy, partition order is preserved (unspecified cross-partition
// ordering, per §4.7); with OrderBy, each partition's records are
// sorted locally first and then k-way merged into one globally
// ordered stream.
func MergeDetails(partials [][]Record, orderBy string) []Record {
	if orderBy == "" {
		var out []Record
		for _, p := range partials {
			out = append(out, p...)
		}
		return out
	}
	srcs := make([]heap.Source[Record], 0, len(partials))
	for _, p := range partials {
		sorted := append([]Record(nil), p...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return orderKey(sorted[i], orderBy) < orderKey(sorted[j], orderBy)
		})
		srcs = append(srcs, &sliceSource[Record]{items: sorted})
	}
	var out []Record
	heap.Merge(srcs, func(a, b Record) bool {
		return orderKey(a, orderBy) < orderKey(b, orderBy)
	}, func(r Record) { out = append(out, r) })
	return out
}

// MergeFasta combines per-partition Fasta results the same way
// MergeDetails does, ordering by each record's id when orderByID is
// set (FASTA records have no arbitrary-column ORDER_BY target, only
// an identifier-ordered mode).
func MergeFasta(partials [][]FastaRecord, orderByID bool) []FastaRecord {
	if !orderByID {
		var out []FastaRecord
		for _, p := range partials {
			out = append(out, p...)
		}
		return out
	}
	srcs := make([]heap.Source[FastaRecord], 0, len(partials))
	for _, p := range partials {
		sorted := append([]FastaRecord(nil), p...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		srcs = append(srcs, &sliceSource[FastaRecord]{items: sorted})
	}
	var out []FastaRecord
	heap.Merge(srcs, func(a, b FastaRecord) bool { return a.ID < b.ID },
		func(r FastaRecord) { out = append(out, r) })
	return out
}
