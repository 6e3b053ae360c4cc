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
	"fmt"

	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/storage"
)

// Fasta decompresses each matched row's sequence for Segment (a
// nucleotide segment name) or Gene (an amino-acid gene name, set the
// other field empty) and emits it as a FASTA record, named by the
// PrimaryKey metadata column. Aligned keeps the reference-length,
// gap-padded form (FastaAligned); unset, gap/deletion symbols are
// stripped to reconstruct the original unaligned read.
type Fasta struct {
	Segment    string
	Gene       string
	PrimaryKey string
	Aligned    bool
	OrderBy    string
	BatchSize  int
}

func (Fasta) Kind() Kind { return KindFasta }

// FastaRecord is one emitted sequence record.
type FastaRecord struct {
	PartitionID int
	Row         uint32
	ID          string
	Sequence    []byte
}

func (f Fasta) column(part *storage.Partition) (string, *storage.SequenceColumn, error) {
	name := f.Segment
	if name == "" {
		name = f.Gene
	}
	seq, ok := part.SequenceColumn(name)
	if !ok {
		return name, nil, fmt.Errorf("action: unknown sequence column %q", name)
	}
	return name, seq, nil
}

// Evaluate streams rows through part in batches, materializing each
// row's sequence and pairing it with its primary-key id.
func (f Fasta) Evaluate(part *storage.Partition, rows bitmap.COW) ([]FastaRecord, error) {
	name, seq, err := f.column(part)
	if err != nil {
		return nil, err
	}
	idCol, ok := part.Column(f.PrimaryKey)
	if !ok {
		return nil, fmt.Errorf("action: unknown primary key column %q", f.PrimaryKey)
	}

	gap := seq.Alphabet().Byte(seq.Alphabet().GapSymbol())

	var out []FastaRecord
	reader := NewBatchedBitmapReader(rows, f.BatchSize)
	for {
		batch, ok := reader.Next()
		if !ok {
			break
		}
		for _, row := range batch {
			aligned, err := seq.Materialize(row)
			if err != nil {
				return nil, fmt.Errorf("action: materializing %q row %d: %w", name, row, err)
			}
			data := aligned
			if !f.Aligned {
				data = bytes.ReplaceAll(aligned, []byte{gap}, nil)
			}
			idValue, err := columnValue(idCol, row)
			if err != nil {
				return nil, err
			}
			out = append(out, FastaRecord{
				PartitionID: part.ID(),
				Row:         row,
				ID:          fmt.Sprintf("%v", idValue),
				Sequence:    data,
			})
		}
	}
	return out, nil
}
