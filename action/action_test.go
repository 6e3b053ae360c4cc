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
	"bytes"
	"sort"
	"testing"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/storage"
)

// buildFixture mirrors the testable-properties fixture: 3 rows, a
// "country" string column (A,A,B), a "seg" nucleotide sequence column,
// and an "id" string column used as the FASTA/Details primary key.
func buildFixture(t *testing.T) *storage.Partition {
	t.Helper()

	dict := storage.NewDictionary()
	country := storage.NewStringColumn(dict)
	country.Insert("A")
	country.Insert("A")
	country.Insert("B")

	idDict := storage.NewDictionary()
	ids := storage.NewStringColumn(idDict)
	ids.Insert("r0")
	ids.Insert("r1")
	ids.Insert("r2")

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

	part := storage.NewPartition(0)
	if err := part.AddColumn("country", country); err != nil {
		t.Fatal(err)
	}
	if err := part.AddColumn("id", ids); err != nil {
		t.Fatal(err)
	}
	if err := part.AddSequenceColumn("seg", seq); err != nil {
		t.Fatal(err)
	}
	part.SetRowCount(3)
	return part
}

func allRows(n uint32) bitmap.COW { return bitmap.Full(n) }

func TestCountEvaluate(t *testing.T) {
	got := Count{}.Evaluate(allRows(3))
	if got.N != 3 {
		t.Fatalf("got %d, want 3", got.N)
	}
}

func TestMergeCounts(t *testing.T) {
	merged := MergeCounts([]CountResult{{N: 2}, {N: 5}, {N: 0}})
	if merged.N != 7 {
		t.Fatalf("got %d, want 7", merged.N)
	}
}

func TestAggregateByCountry(t *testing.T) {
	part := buildFixture(t)
	result, err := Aggregate{By: []string{"country"}}.Evaluate(part, allRows(3))
	if err != nil {
		t.Fatal(err)
	}
	groups := result.Groups()
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Values["country"].(string) < groups[j].Values["country"].(string)
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Values["country"] != "A" || groups[0].Count != 2 {
		t.Fatalf("group A: %+v", groups[0])
	}
	if groups[1].Values["country"] != "B" || groups[1].Count != 1 {
		t.Fatalf("group B: %+v", groups[1])
	}
}

func TestMergeAggregatesAcrossPartitions(t *testing.T) {
	part := buildFixture(t)
	r1, err := Aggregate{By: []string{"country"}}.Evaluate(part, allRows(3))
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Aggregate{By: []string{"country"}}.Evaluate(part, allRows(3))
	if err != nil {
		t.Fatal(err)
	}
	merged := MergeAggregates([]AggregateResult{r1, r2})
	total := uint64(0)
	for _, g := range merged {
		total += g.Count
	}
	if total != 6 {
		t.Fatalf("got total %d, want 6", total)
	}
}

func TestDetailsProjectsRequestedColumns(t *testing.T) {
	part := buildFixture(t)
	recs, err := Details{Columns: []string{"country"}}.Evaluate(part, allRows(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Values["country"] != "A" || recs[2].Values["country"] != "B" {
		t.Fatalf("unexpected values: %+v", recs)
	}
	if _, ok := recs[0].Values["id"]; ok {
		t.Fatal("expected only the requested column to be projected")
	}
}

func TestDetailsDefaultsToAllColumns(t *testing.T) {
	part := buildFixture(t)
	recs, err := Details{}.Evaluate(part, allRows(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if _, ok := recs[0].Values["id"]; !ok {
		t.Fatal("expected every declared column to be projected by default")
	}
}

func TestFastaAlignedReturnsStoredSequence(t *testing.T) {
	part := buildFixture(t)
	recs, err := Fasta{Segment: "seg", PrimaryKey: "id", Aligned: true}.Evaluate(part, allRows(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].ID != "r0" || string(recs[0].Sequence) != "ACG" {
		t.Fatalf("got %+v", recs[0])
	}
}

func TestFastaUnalignedStripsGaps(t *testing.T) {
	seqCol, err := storage.NewSequenceColumn("seg", alphabet.Nucleotide, []byte("ACGT"))
	if err != nil {
		t.Fatal(err)
	}
	if err := seqCol.InsertRow([]byte("AC-T")); err != nil {
		t.Fatal(err)
	}
	seqCol.Finalize()

	idDict := storage.NewDictionary()
	ids := storage.NewStringColumn(idDict)
	ids.Insert("only")

	part := storage.NewPartition(0)
	if err := part.AddColumn("id", ids); err != nil {
		t.Fatal(err)
	}
	if err := part.AddSequenceColumn("seg", seqCol); err != nil {
		t.Fatal(err)
	}
	part.SetRowCount(1)

	recs, err := Fasta{Segment: "seg", PrimaryKey: "id", Aligned: false}.Evaluate(part, allRows(1))
	if err != nil {
		t.Fatal(err)
	}
	if string(recs[0].Sequence) != "ACT" {
		t.Fatalf("got %q, want %q", recs[0].Sequence, "ACT")
	}
}

func TestBatchedBitmapReaderChunksByBatchSize(t *testing.T) {
	rows := bitmap.Full(10)
	r := NewBatchedBitmapReader(rows, 3)
	var batches [][]uint32
	for {
		b, ok := r.Next()
		if !ok {
			break
		}
		batches = append(batches, append([]uint32(nil), b...))
	}
	if len(batches) != 4 {
		t.Fatalf("got %d batches, want 4", len(batches))
	}
	if len(batches[0]) != 3 || len(batches[3]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", batches)
	}
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteNDJSON(&buf, []Record{{Values: map[string]any{"country": "A"}}})
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\"country\":\"A\"}\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteFastaWrapsLines(t *testing.T) {
	var buf bytes.Buffer
	seq := bytes.Repeat([]byte("A"), 70)
	err := WriteFasta(&buf, []FastaRecord{{ID: "x", Sequence: seq}})
	if err != nil {
		t.Fatal(err)
	}
	want := ">x\n" + string(bytes.Repeat([]byte("A"), 60)) + "\n" + string(bytes.Repeat([]byte("A"), 10)) + "\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestMergeDetailsOrdered(t *testing.T) {
	a := []Record{{Values: map[string]any{"k": "b"}}, {Values: map[string]any{"k": "d"}}}
	b := []Record{{Values: map[string]any{"k": "a"}}, {Values: map[string]any{"k": "c"}}}
	merged := MergeDetails([][]Record{a, b}, "k")
	got := make([]string, len(merged))
	for i, r := range merged {
		got[i] = r.Values["k"].(string)
	}
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
