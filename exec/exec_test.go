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
	"testing"
	"time"

	"github.com/GenSpectrum/silo-go/action"
	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/query"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// buildDatabase returns a 2-partition database, each partition a copy
// of the scenario fixture (sequence [A,C,G]/[A,T,G]/[C,C,T] over
// reference ACG), with an empty lineage tree/index pair per partition.
func buildDatabase(t *testing.T) *Database {
	t.Helper()
	tree := lineage.NewTree()
	db := &Database{LineageTree: tree, Lineage: make(map[int]*lineage.Index)}
	for id := 0; id < 2; id++ {
		seq, err := storage.NewSequenceColumn("seg", alphabet.Nucleotide, []byte("ACG"))
		if err != nil {
			t.Fatal(err)
		}
		for _, row := range [][]byte{[]byte("ACG"), []byte("ATG"), []byte("CCT")} {
			if err := seq.InsertRow(row); err != nil {
				t.Fatal(err)
			}
		}
		seq.Finalize()

		dict := storage.NewDictionary()
		idCol := storage.NewStringColumn(dict)
		for r := 0; r < 3; r++ {
			idCol.Insert(string(rune('a'+id)) + string(rune('0'+r)))
		}

		part := storage.NewPartition(id)
		if err := part.AddColumn("id", idCol); err != nil {
			t.Fatal(err)
		}
		if err := part.AddSequenceColumn("seg", seq); err != nil {
			t.Fatal(err)
		}
		part.SetRowCount(3)

		db.Partitions = append(db.Partitions, part)
		db.Lineage[id] = lineage.NewIndex(tree)
	}
	return db
}

func TestDatabaseRunCountAcrossPartitions(t *testing.T) {
	db := buildDatabase(t)
	expr := query.HasNucleotideMutation{Segment: "seg", Position: 1, Symbol: 'C'}
	results, err := db.Run(context.Background(), Coordinator{Parallel: 2}, expr, action.Count{})
	if err != nil {
		t.Fatal(err)
	}
	merged := MergeCount(results)
	// {0,2} matched per partition, two partitions.
	if merged.N != 4 {
		t.Fatalf("got %d, want 4", merged.N)
	}
}

func TestDatabaseRunPropagatesCompileError(t *testing.T) {
	db := buildDatabase(t)
	expr := query.StringEquals{Column: "nope", Value: "x"}
	_, err := db.Run(context.Background(), Coordinator{Parallel: 2}, expr, action.Count{})
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.BadRequest {
		t.Fatalf("got err=%v, want BadRequest", err)
	}
}

func TestCoordinatorHonorsCancellation(t *testing.T) {
	db := buildDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	expr := query.True{}
	_, err := db.Run(ctx, Coordinator{Parallel: 2}, expr, action.Count{})
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.QueryCancelled {
		t.Fatalf("got err=%v, want QueryCancelled", err)
	}
}

func TestCoordinatorHonorsDeadline(t *testing.T) {
	db := buildDatabase(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	expr := query.True{}
	_, err := db.Run(ctx, Coordinator{Parallel: 2}, expr, action.Count{})
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.QueryTimeout {
		t.Fatalf("got err=%v, want QueryTimeout", err)
	}
}

func TestRunDetailsMergeOrdered(t *testing.T) {
	db := buildDatabase(t)
	expr := query.True{}
	results, err := db.Run(context.Background(), Coordinator{Parallel: 2},
		expr, action.Details{Columns: []string{"id"}})
	if err != nil {
		t.Fatal(err)
	}
	merged := MergeDetails(results, "id")
	if len(merged) != 6 {
		t.Fatalf("got %d records, want 6", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i-1].Values["id"].(string) > merged[i].Values["id"].(string) {
			t.Fatalf("not ordered: %v", merged)
		}
	}
}

func TestRunDetailsUnknownSequenceColumnIsError(t *testing.T) {
	db := buildDatabase(t)
	expr := query.True{}
	_, err := db.Run(context.Background(), Coordinator{Parallel: 2},
		expr, action.Details{Columns: []string{"seg"}})
	if err == nil {
		t.Fatal("expected an error: \"seg\" is a sequence column, not a metadata column")
	}
}
