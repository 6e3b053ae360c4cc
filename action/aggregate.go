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
	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/storage"
)

// Aggregate groups matched rows by the values of By and counts rows
// per group; partials merge by additive map-merge.
type Aggregate struct {
	By        []string
	BatchSize int
}

func (Aggregate) Kind() Kind { return KindAggregate }

// GroupCount is one output group: the projected By values and its row
// count.
type GroupCount struct {
	Values map[string]any `json:"values"`
	Count  uint64         `json:"count"`
}

// AggregateResult is Aggregate's partial: per-partition group counts,
// keyed internally by the group's rendered value tuple so Merge can
// fold same-key groups from different partitions without re-deriving
// the key from Values.
type AggregateResult struct {
	groups map[string]*GroupCount
}

// Evaluate streams rows in batches through part, counting rows per
// distinct value tuple of By.
func (a Aggregate) Evaluate(part *storage.Partition, rows bitmap.COW) (AggregateResult, error) {
	result := AggregateResult{groups: make(map[string]*GroupCount)}
	reader := NewBatchedBitmapReader(rows, a.BatchSize)
	for {
		batch, ok := reader.Next()
		if !ok {
			break
		}
		for _, row := range batch {
			key, err := groupKey(part, a.By, row)
			if err != nil {
				return AggregateResult{}, err
			}
			g, exists := result.groups[key]
			if !exists {
				values := make(map[string]any, len(a.By))
				for _, name := range a.By {
					col, _ := part.Column(name)
					v, err := columnValue(col, row)
					if err != nil {
						return AggregateResult{}, err
					}
					values[name] = v
				}
				g = &GroupCount{Values: values}
				result.groups[key] = g
			}
			g.Count++
		}
	}
	return result, nil
}

// Groups returns the result's groups in no particular order.
func (r AggregateResult) Groups() []GroupCount {
	out := make([]GroupCount, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, *g)
	}
	return out
}

// MergeAggregates additively folds every partition's group counts
// into one map keyed the same way Evaluate derives its keys, so two
// partitions' partials for the same value tuple land in the same
// final group.
func MergeAggregates(partials []AggregateResult) []GroupCount {
	merged := make(map[string]*GroupCount)
	for _, p := range partials {
		for key, g := range p.groups {
			existing, ok := merged[key]
			if !ok {
				merged[key] = &GroupCount{Values: g.Values, Count: g.Count}
				continue
			}
			existing.Count += g.Count
		}
	}
	out := make([]GroupCount, 0, len(merged))
	for _, g := range merged {
		out = append(out, *g)
	}
	return out
}
