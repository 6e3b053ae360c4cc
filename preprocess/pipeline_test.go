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

package preprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GenSpectrum/silo-go/config"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testSchema() *config.Schema {
	return &config.Schema{
		PrimaryKeyColumn: "id",
		LineageColumn:    "lineage",
		PartitionSize:    2,
		Columns: []config.ColumnSchema{
			{Name: "id", Kind: config.ColumnString},
			{Name: "lineage", Kind: config.ColumnString},
			{Name: "age", Kind: config.ColumnInt},
			{Name: "collectionDate", Kind: config.ColumnDate},
			{Name: "qc", Kind: config.ColumnBool},
		},
		Sequences: []config.SequenceSchema{
			{Name: "main", Kind: "nucleotide", Reference: "main"},
		},
	}
}

func buildTestInput(t *testing.T, dir string) Input {
	t.Helper()
	metadata := "id\tlineage\tage\tcollectionDate\tqc\n" +
		"S1\tB.1\t41\t2021-06-01\ttrue\n" +
		"S2\tB.1.1\t7\t2021-07-01\tfalse\n" +
		"S3\t\t\t\t\n"
	metaPath := writeTestFile(t, dir, "metadata.tsv", metadata)

	fasta := ">S1\nACG\n>S2\nATG\n>S3\nCCT\n"
	fastaPath := writeTestFile(t, dir, "main.fasta", fasta)

	refJSON := `{"nucleotide_sequences": {"main": "ACG"}, "aa_sequences": {}}`
	refPath := writeTestFile(t, dir, "reference-genomes.json", refJSON)

	lineagePath := writeTestFile(t, dir, "lineages.yaml", `
entries:
  - name: B.1
    parentName: ""
  - name: B.1.1
    parentName: B.1
`)

	return Input{
		Schema:                 testSchema(),
		MetadataPath:           metaPath,
		ReferenceGenomesPath:   refPath,
		SequenceFiles:          map[string]SequenceFileInput{"main": {Path: fastaPath, Format: "fasta"}},
		LineageDefinitionsPath: lineagePath,
	}
}

func TestBuildProducesExpectedPartitions(t *testing.T) {
	dir := t.TempDir()
	src, err := Build(buildTestInput(t, dir))
	if err != nil {
		t.Fatal(err)
	}
	if src.BuildID == "" {
		t.Fatal("expected a non-empty BuildID")
	}
	if len(src.Partitions) != 2 {
		t.Fatalf("got %d partitions, want 2 (partitionSize=2 over 3 rows)", len(src.Partitions))
	}
	if src.Partitions[0].RowCount() != 2 {
		t.Fatalf("got partition 0 row count %d, want 2", src.Partitions[0].RowCount())
	}
	if src.Partitions[1].RowCount() != 1 {
		t.Fatalf("got partition 1 row count %d, want 1", src.Partitions[1].RowCount())
	}

	ageCol, ok := src.Partitions[0].Column("age")
	if !ok {
		t.Fatal("missing age column")
	}
	if got := ageCol.(*storage.IntColumn).GetValue(0); got != 41 {
		t.Fatalf("got age %d, want 41", got)
	}

	qcCol, _ := src.Partitions[1].Column("qc")
	if qcCol.(*storage.BoolColumn).IsNull(0) != true {
		t.Fatal("expected partition 1 row 0 (S3) qc to be null")
	}

	seqCol, ok := src.Partitions[0].SequenceColumn("main")
	if !ok {
		t.Fatal("missing main sequence column")
	}
	row, err := seqCol.Materialize(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(row) != "ATG" {
		t.Fatalf("got %q, want ATG", row)
	}

	idx0 := src.Lineage[0]
	b11, ok := src.LineageTree.Resolve("B.1.1")
	if !ok {
		t.Fatal("missing B.1.1 in lineage tree")
	}
	if idx0.FilterExactly(b11).Cardinality() != 1 {
		t.Fatalf("expected exactly 1 row exactly B.1.1 in partition 0")
	}
	b1, _ := src.LineageTree.Resolve("B.1")
	sub, ok := idx0.FilterIncludingSublineages(b1)
	if !ok || sub.Cardinality() != 2 {
		t.Fatalf("expected both partition-0 rows under B.1's sublineage, got ok=%v", ok)
	}

	idx1 := src.Lineage[1]
	if _, ok := idx1.FilterIncludingSublineages(b1); ok {
		t.Fatal("partition 1's only row (S3) has no lineage assigned, expected no match")
	}
}

func TestBuildRejectsUndeclaredColumn(t *testing.T) {
	dir := t.TempDir()
	input := buildTestInput(t, dir)
	input.MetadataPath = writeTestFile(t, dir, "bad-metadata.tsv",
		"id\tlineage\tage\tcollectionDate\tqc\tunknown\nS1\tB.1\t41\t2021-06-01\ttrue\tx\n")

	_, err := Build(input)
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.PreprocessingError {
		t.Fatalf("got err=%v, want PreprocessingError", err)
	}
}

func TestBuildRejectsRowCountMismatch(t *testing.T) {
	dir := t.TempDir()
	input := buildTestInput(t, dir)
	input.SequenceFiles["main"] = SequenceFileInput{
		Path:   writeTestFile(t, dir, "short.fasta", ">S1\nACG\n>S2\nATG\n"),
		Format: "fasta",
	}

	_, err := Build(input)
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.PreprocessingError {
		t.Fatalf("got err=%v, want PreprocessingError (missing sequence for S3)", err)
	}
}
