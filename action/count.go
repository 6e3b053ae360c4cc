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

import "github.com/GenSpectrum/silo-go/bitmap"

// Count returns the cardinality of the matched row set per partition;
// partials merge by summation.
type Count struct{}

func (Count) Kind() Kind { return KindCount }

// CountResult is Count's partial: one partition's matched row count.
type CountResult struct {
	N uint64 `json:"count"`
}

// Evaluate computes rows' cardinality. This does not need to walk the
// bitmap via BatchedBitmapReader at all: a roaring bitmap's cardinality
// is summed from its per-container counts, without visiting any row.
func (Count) Evaluate(rows bitmap.COW) CountResult {
	return CountResult{N: rows.Cardinality()}
}

// MergeCounts sums a batch of partition partials into the final
// count.
func MergeCounts(partials []CountResult) CountResult {
	var total uint64
	for _, p := range partials {
		total += p.N
	}
	return CountResult{N: total}
}
