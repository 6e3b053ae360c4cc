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

package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/date"
	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// buildSource returns a 1-partition database: a string column
// ("country"), an int column ("age", with one null), a date column
// ("collectionDate"), a bool column ("qc"), a nucleotide sequence
// column ("seg"), and a 2-node lineage tree with rows 0 and 1
// assigned to leaf B.1.1 and row 2 left unassigned.
func buildSource(t *testing.T) *Source {
	t.Helper()

	dict := storage.NewDictionary()
	country := storage.NewStringColumn(dict)
	country.Insert("USA")
	country.Insert("DEU")
	country.InsertNull()

	age := storage.NewIntColumn()
	age.Insert(41)
	age.Insert(7)
	age.InsertNull()

	collected := storage.NewDateColumn(false)
	d1, err := date.Parse("2021-06-01")
	if err != nil {
		t.Fatal(err)
	}
	d2, err := date.Parse("2021-07-01")
	if err != nil {
		t.Fatal(err)
	}
	collected.Insert(d1)
	collected.Insert(d2)
	collected.InsertNull()

	qc := storage.NewBoolColumn()
	qc.Insert(true)
	qc.Insert(false)
	qc.InsertNull()

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
	must(t, part.AddColumn("country", country))
	must(t, part.AddColumn("age", age))
	must(t, part.AddColumn("collectionDate", collected))
	must(t, part.AddColumn("qc", qc))
	must(t, part.AddSequenceColumn("seg", seq))
	part.SetRowCount(3)

	tree := lineage.NewTree()
	if _, err := tree.Add("B.1", ""); err != nil {
		t.Fatal(err)
	}
	b11, err := tree.Add("B.1.1", "B.1")
	if err != nil {
		t.Fatal(err)
	}
	idx := lineage.NewIndex(tree)
	idx.Insert(0, b11)
	idx.Insert(1, b11)

	return &Source{
		Partitions:  []*storage.Partition{part},
		LineageTree: tree,
		Lineage:     map[int]*lineage.Index{0: idx},
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := buildSource(t)
	if err := Save(dir, src); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Partitions) != 1 {
		t.Fatalf("got %d partitions, want 1", len(loaded.Partitions))
	}
	part := loaded.Partitions[0]
	if part.RowCount() != 3 {
		t.Fatalf("got row count %d, want 3", part.RowCount())
	}

	countryCol, ok := part.Column("country")
	if !ok {
		t.Fatal("missing country column")
	}
	country := countryCol.(*storage.StringColumn)
	if got := country.GetValue(0); got != "USA" {
		t.Fatalf("got %q, want USA", got)
	}
	if !country.IsNull(2) {
		t.Fatal("row 2 should be null")
	}

	ageCol, _ := part.Column("age")
	age := ageCol.(*storage.IntColumn)
	if got := age.GetValue(1); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if !age.IsNull(2) {
		t.Fatal("age row 2 should be null")
	}

	dateCol, _ := part.Column("collectionDate")
	dc := dateCol.(*storage.DateColumn)
	if dc.GetValue(0).String() != "2021-06-01" {
		t.Fatalf("got %s, want 2021-06-01", dc.GetValue(0))
	}

	qcCol, _ := part.Column("qc")
	qc := qcCol.(*storage.BoolColumn)
	if v, ok := qc.GetValue(0); !ok || !v {
		t.Fatal("qc row 0 should be true")
	}

	seqCol, ok := part.SequenceColumn("seg")
	if !ok {
		t.Fatal("missing seg sequence column")
	}
	row1, err := seqCol.Materialize(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(row1) != "ATG" {
		t.Fatalf("got %q, want ATG", row1)
	}
	tSym, ok := seqCol.Alphabet().Lookup('T')
	if !ok {
		t.Fatal("T not in nucleotide alphabet")
	}
	cow, err := seqCol.SymbolAt(1, tSym)
	if err != nil {
		t.Fatal(err)
	}
	if cow.Cardinality() != 1 || !cow.Contains(1) {
		t.Fatalf("expected only row 1 to carry T at position 1, got %v", cow.ToArray())
	}

	idx, ok := loaded.Lineage[0]
	if !ok {
		t.Fatal("missing lineage index for partition 0")
	}
	b11, _ := loaded.LineageTree.Resolve("B.1.1")
	exact := idx.FilterExactly(b11)
	if exact.Cardinality() != 2 {
		t.Fatalf("got %d exact B.1.1 rows, want 2", exact.Cardinality())
	}
	b1, _ := loaded.LineageTree.Resolve("B.1")
	sub, ok := idx.FilterIncludingSublineages(b1)
	if !ok || sub.Cardinality() != 2 {
		t.Fatalf("expected 2 rows under B.1's sublineage, got %v", sub)
	}
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, buildSource(t)); err != nil {
		t.Fatal(err)
	}
	m, err := readManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	m.Version = FormatVersion + 1
	if err := writeManifest(filepath.Join(dir, "manifest.yaml"), m); err != nil {
		t.Fatal(err)
	}

	_, err = Load(dir)
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.LoadDatabaseError {
		t.Fatalf("got err=%v, want LoadDatabaseError", err)
	}
}

func TestLoadRejectsDigestMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, buildSource(t)); err != nil {
		t.Fatal(err)
	}
	corrupt := filepath.Join(dir, "partitions", "0", "columns", "country.col")
	data, err := os.ReadFile(corrupt)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(corrupt, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = Load(dir)
	kind, ok := siloerr.KindOf(err)
	if !ok || kind != siloerr.LoadDatabaseError {
		t.Fatalf("got err=%v, want LoadDatabaseError", err)
	}
}
