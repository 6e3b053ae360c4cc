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

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// PartitionFunc evaluates one partition end-to-end (compiling its
// filter and running the action against the matched rows) and returns
// the action's partial result.
type PartitionFunc func(part *storage.Partition) (any, error)

// PartitionResult pairs one partition's outcome with its id. Results
// are returned in partition order regardless of completion order, so
// a merge step never has to re-sort by partition.
type PartitionResult struct {
	PartitionID int
	Value       any
	Err         error
}

// Coordinator runs a PartitionFunc over every partition in a
// fixed-size worker pool and collects the partials.
type Coordinator struct {
	// Parallel is the worker pool size; zero means runtime.NumCPU().
	Parallel int
}

// Run dispatches fn for every partition onto the pool, checking ctx
// at each partition-task boundary rather than inside each action's
// per-row batch loop (see DESIGN.md). The first error encountered
// (including a cancellation) is returned alongside the partial
// results collected so far; callers that want best-effort partials
// despite an error can still inspect the PartitionResult slice.
func (c Coordinator) Run(ctx context.Context, partitions []*storage.Partition, fn PartitionFunc) ([]PartitionResult, error) {
	if len(partitions) == 0 {
		return nil, nil
	}
	parallel := c.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	if parallel > len(partitions) {
		parallel = len(partitions)
	}

	results := make([]PartitionResult, len(partitions))
	p := newPool(parallel)
	defer p.close()

	var wg sync.WaitGroup
	wg.Add(len(partitions))
	for i, part := range partitions {
		i, part := i, part
		p.submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i] = PartitionResult{PartitionID: part.ID(), Err: classifyCancellation(err)}
				return
			}
			v, err := fn(part)
			results[i] = PartitionResult{PartitionID: part.ID(), Value: v, Err: err}
		})
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}

func classifyCancellation(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return siloerr.New(siloerr.QueryTimeout, "query: deadline exceeded")
	}
	return siloerr.New(siloerr.QueryCancelled, "query: cancelled")
}
