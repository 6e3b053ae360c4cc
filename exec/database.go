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

	"github.com/GenSpectrum/silo-go/action"
	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/query"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// Database is every partition currently served, plus the lineage
// tree (one per database) and each partition's own lineage index
// (row ids, and therefore lineage bitmaps, are partition-local).
type Database struct {
	Partitions  []*storage.Partition
	LineageTree *lineage.Tree
	Lineage     map[int]*lineage.Index // keyed by Partition.ID()
}

// Run compiles expr against every partition and runs act over the
// matched rows, in parallel across the coordinator's pool, then
// returns the raw per-partition partials for a caller to merge with
// MergeCount/MergeAggregate/MergeDetails/MergeFasta.
func (db *Database) Run(ctx context.Context, coord Coordinator, expr query.Expr, act action.Action) ([]PartitionResult, error) {
	fn := func(part *storage.Partition) (any, error) {
		qctx := &query.Context{
			Partition:   part,
			LineageTree: db.LineageTree,
			Lineage:     db.Lineage[part.ID()],
		}
		return CompileAndRun(qctx, expr, act)
	}
	return coord.Run(ctx, db.Partitions, fn)
}

// CompileAndRun compiles expr against qctx's partition and runs act
// over the matched row bitmap, returning act's concrete partial
// result type (action.CountResult, action.AggregateResult,
// []action.Record, or []action.FastaRecord).
func CompileAndRun(qctx *query.Context, expr query.Expr, act action.Action) (any, error) {
	op, err := query.Compile(qctx, expr, query.ModeNone)
	if err != nil {
		return nil, err
	}
	rows := op.Evaluate()

	switch a := act.(type) {
	case action.Count:
		return a.Evaluate(rows), nil
	case action.Aggregate:
		return a.Evaluate(qctx.Partition, rows)
	case action.Details:
		return a.Evaluate(qctx.Partition, rows)
	case action.Fasta:
		return a.Evaluate(qctx.Partition, rows)
	default:
		return nil, siloerr.New(siloerr.BadRequest, "exec: unsupported action %T", act)
	}
}
