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

package exec

import "github.com/GenSpectrum/silo-go/action"

// MergeCount sums every partition's Count partial.
func MergeCount(results []PartitionResult) action.CountResult {
	partials := make([]action.CountResult, len(results))
	for i, r := range results {
		partials[i] = r.Value.(action.CountResult)
	}
	return action.MergeCounts(partials)
}

// MergeAggregate additively folds every partition's Aggregate partial.
func MergeAggregate(results []PartitionResult) []action.GroupCount {
	partials := make([]action.AggregateResult, len(results))
	for i, r := range results {
		partials[i] = r.Value.(action.AggregateResult)
	}
	return action.MergeAggregates(partials)
}

// MergeDetails combines every partition's Details partial, k-way
// merging on orderBy when it is non-empty.
func MergeDetails(results []PartitionResult, orderBy string) []action.Record {
	partials := make([][]action.Record, len(results))
	for i, r := range results {
		partials[i], _ = r.Value.([]action.Record)
	}
	return action.MergeDetails(partials, orderBy)
}

// MergeFasta combines every partition's Fasta partial, ordering by id
// when orderByID is set.
func MergeFasta(results []PartitionResult, orderByID bool) []action.FastaRecord {
	partials := make([][]action.FastaRecord, len(results))
	for i, r := range results {
		partials[i], _ = r.Value.([]action.FastaRecord)
	}
	return action.MergeFasta(partials, orderByID)
}
