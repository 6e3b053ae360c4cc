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

import "fmt"

// Partition is a contiguous, disjoint range of row ids with its own
// columns and sequence columns. Row ids are local to the partition;
// the executor is responsible for mapping (partitionID, localRowID)
// to whatever global identifier the caller wants (typically the
// "primaryKey" metadata column's own value).
type Partition struct {
	id        int
	rowCount  uint32
	columns   map[string]Column
	sequences map[string]*SequenceColumn
	lineageID *int32 // per-row leaf lineage id array is owned by the lineage index, not here

	finalized bool
}

// NewPartition returns an empty, still-being-built Partition with
// the given id (its position within the database's partition list).
func NewPartition(id int) *Partition {
	return &Partition{
		id:        id,
		columns:   make(map[string]Column),
		sequences: make(map[string]*SequenceColumn),
	}
}

// ID returns the partition's index within the database.
func (p *Partition) ID() int { return p.id }

// RowCount returns N_p, the number of rows in the partition. It is
// fixed once SetRowCount has been called (normally done once, right
// after every column has received its last Insert during build).
func (p *Partition) RowCount() uint32 { return p.rowCount }

// SetRowCount freezes the partition's row count. Every column must
// already report NumValues() == n; AddColumn does not itself check
// this since columns may still be receiving inserts when a caller
// wants to reserve storage.
func (p *Partition) SetRowCount(n uint32) {
	p.rowCount = n
	p.finalized = true
}

// AddColumn registers a metadata column under name. It is an error
// to register two columns under the same name.
func (p *Partition) AddColumn(name string, col Column) error {
	if _, exists := p.columns[name]; exists {
		return fmt.Errorf("storage: duplicate column %q", name)
	}
	p.columns[name] = col
	return nil
}

// Column returns the metadata column registered under name, or
// (nil, false) if there is none.
func (p *Partition) Column(name string) (Column, bool) {
	c, ok := p.columns[name]
	return c, ok
}

// ColumnNames returns every metadata column name in the partition,
// in no particular order.
func (p *Partition) ColumnNames() []string {
	out := make([]string, 0, len(p.columns))
	for name := range p.columns {
		out = append(out, name)
	}
	return out
}

// AddSequenceColumn registers a sequence column (a nucleotide
// segment or an amino-acid gene) under name.
func (p *Partition) AddSequenceColumn(name string, col *SequenceColumn) error {
	if _, exists := p.sequences[name]; exists {
		return fmt.Errorf("storage: duplicate sequence column %q", name)
	}
	p.sequences[name] = col
	return nil
}

// SequenceColumn returns the sequence column registered under name.
func (p *Partition) SequenceColumn(name string) (*SequenceColumn, bool) {
	c, ok := p.sequences[name]
	return c, ok
}

// SequenceColumnNames returns every sequence column name in the
// partition.
func (p *Partition) SequenceColumnNames() []string {
	out := make([]string, 0, len(p.sequences))
	for name := range p.sequences {
		out = append(out, name)
	}
	return out
}

// CheckConsistency verifies the row-count-monotonicity invariant:
// every column and sequence column in the partition reports exactly
// RowCount() values.
func (p *Partition) CheckConsistency() error {
	for name, col := range p.columns {
		if n := col.NumValues(); uint32(n) != p.rowCount {
			return fmt.Errorf("storage: column %q has %d values, partition has %d rows", name, n, p.rowCount)
		}
	}
	for name, seq := range p.sequences {
		if n := seq.NumValues(); uint32(n) != p.rowCount {
			return fmt.Errorf("storage: sequence column %q has %d rows, partition has %d rows", name, n, p.rowCount)
		}
	}
	return nil
}
