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

package storage

import (
	"testing"

	"github.com/GenSpectrum/silo-go/alphabet"
)

func TestPartitionAddColumnRejectsDuplicates(t *testing.T) {
	p := NewPartition(0)
	if err := p.AddColumn("age", NewIntColumn()); err != nil {
		t.Fatal(err)
	}
	if err := p.AddColumn("age", NewIntColumn()); err == nil {
		t.Fatal("expected duplicate column name to be rejected")
	}
}

func TestPartitionSequenceColumnRoundTrip(t *testing.T) {
	p := NewPartition(0)
	seq, err := NewSequenceColumn("main", alphabet.Nucleotide, []byte("ACG"))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddSequenceColumn("main", seq); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.SequenceColumn("main"); !ok {
		t.Fatal("expected to find registered sequence column")
	}
	if err := p.AddSequenceColumn("main", seq); err == nil {
		t.Fatal("expected duplicate sequence column name to be rejected")
	}
}

func TestPartitionCheckConsistency(t *testing.T) {
	p := NewPartition(0)
	ints := NewIntColumn()
	ints.Insert(1)
	ints.Insert(2)
	ints.Insert(3)
	if err := p.AddColumn("n", ints); err != nil {
		t.Fatal(err)
	}
	p.SetRowCount(3)
	if err := p.CheckConsistency(); err != nil {
		t.Fatal(err)
	}

	short := NewIntColumn()
	short.Insert(1)
	p2 := NewPartition(1)
	if err := p2.AddColumn("n", short); err != nil {
		t.Fatal(err)
	}
	p2.SetRowCount(3)
	if err := p2.CheckConsistency(); err == nil {
		t.Fatal("expected mismatched row count to be rejected")
	}
}
