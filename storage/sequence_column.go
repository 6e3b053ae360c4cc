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
	"fmt"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/compr"
)

// SequenceColumn holds one aligned sequence per row (a nucleotide
// genome or a single gene's amino-acid translation), indexed two
// ways: the VerticalIndex answers per-position symbol predicates,
// and a per-row zstd-compressed copy (against the reference as
// dictionary) supports materializing the sequence back out for
// Fasta/FastaAligned actions.
type SequenceColumn struct {
	name      string
	alpha     *alphabet.Alphabet
	reference []byte
	dict      *compr.Dictionary
	vindex    *VerticalIndex
	raw       [][]byte // per-row compressed sequence
	rows      uint32
}

// NewSequenceColumn returns a builder for a sequence column named
// name (a gene name for amino-acid columns, or the nucleotide
// segment name) aligned against reference.
func NewSequenceColumn(name string, kind alphabet.Kind, reference []byte) (*SequenceColumn, error) {
	alpha := alphabet.For(kind)
	dict, err := compr.NewDictionary(reference)
	if err != nil {
		return nil, fmt.Errorf("storage: building sequence dictionary for %q: %w", name, err)
	}
	return &SequenceColumn{
		name:      name,
		alpha:     alpha,
		reference: reference,
		dict:      dict,
		vindex:    NewVerticalIndex(alpha, len(reference)),
	}, nil
}

// Name returns the column's gene/segment name.
func (c *SequenceColumn) Name() string { return c.name }

// Length returns the aligned sequence length (the reference's
// length).
func (c *SequenceColumn) Length() int { return len(c.reference) }

// Alphabet returns the column's fixed symbol alphabet.
func (c *SequenceColumn) Alphabet() *alphabet.Alphabet { return c.alpha }

// InsertRow records seq (which must have length Length(), with
// unrecognized bytes treated as the alphabet's ambiguity-free
// "any" symbol by the caller before insertion) for the next row: it
// observes every position in the vertical index and compresses the
// raw bytes against the reference dictionary for later
// materialization.
func (c *SequenceColumn) InsertRow(seq []byte) error {
	if len(seq) != len(c.reference) {
		return fmt.Errorf("storage: sequence column %q: row has length %d, want %d",
			c.name, len(seq), len(c.reference))
	}
	row := c.rows
	for pos, b := range seq {
		sym, ok := c.alpha.Lookup(b)
		if !ok {
			return fmt.Errorf("storage: sequence column %q: unrecognized symbol %q at position %d",
				c.name, b, pos)
		}
		c.vindex.Observe(row, pos, sym)
	}
	c.raw = append(c.raw, c.dict.Compress(seq, nil))
	c.rows++
	return nil
}

// Finalize freezes the vertical index, picking the flip symbol at
// each position. Rows may not be inserted afterward.
func (c *SequenceColumn) Finalize() {
	c.vindex.Finalize(c.rows)
}

func (c *SequenceColumn) Kind() Kind       { return KindSequence }
func (c *SequenceColumn) NumValues() int   { return int(c.rows) }
func (c *SequenceColumn) IsNull(_ uint32) bool { return false } // sequence columns carry no NULL sentinel
func (c *SequenceColumn) IsNullBitmap() bitmap.COW { return bitmap.Empty() }

// SymbolAt returns the bitmap of rows whose value at pos equals the
// concrete symbol sym (already resolved from a query byte; ambiguity
// expansion happens one level up, in the filter compiler, as a union
// of SymbolAt calls).
func (c *SequenceColumn) SymbolAt(pos int, sym alphabet.Symbol) (bitmap.COW, error) {
	return c.vindex.SymbolAt(pos, sym)
}

// Materialize decompresses row's stored sequence back to its
// original aligned form.
func (c *SequenceColumn) Materialize(row uint32) ([]byte, error) {
	if int(row) >= len(c.raw) {
		return nil, fmt.Errorf("storage: sequence column %q: row %d out of range", c.name, row)
	}
	return c.dict.Decompress(c.raw[row])
}

// Reference returns the reference sequence this column is aligned
// and compressed against.
func (c *SequenceColumn) Reference() []byte { return c.reference }

// VIndex returns the column's vertical index, for snapshot
// serialization.
func (c *SequenceColumn) VIndex() *VerticalIndex { return c.vindex }

// CompressedRows returns every row's zstd-compressed bytes, in row
// order, for snapshot serialization.
func (c *SequenceColumn) CompressedRows() [][]byte { return c.raw }

// LoadSequenceColumn reconstructs a sequence column from its already
// finalized vertical index and its rows' compressed bytes, bypassing
// InsertRow/Finalize; used when restoring from a persisted snapshot
// where the index was serialized directly rather than rebuilt by
// replaying inserts.
func LoadSequenceColumn(name string, kind alphabet.Kind, reference []byte, vindex *VerticalIndex, raw [][]byte) (*SequenceColumn, error) {
	dict, err := compr.NewDictionary(reference)
	if err != nil {
		return nil, fmt.Errorf("storage: building sequence dictionary for %q: %w", name, err)
	}
	return &SequenceColumn{
		name:      name,
		alpha:     alphabet.For(kind),
		reference: reference,
		dict:      dict,
		vindex:    vindex,
		raw:       raw,
		rows:      uint32(len(raw)),
	}, nil
}
