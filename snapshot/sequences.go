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
	"fmt"
	"io"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/storage"
)

// writeSequenceRows serializes every row's compressed bytes to w, in
// row order.
func writeSequenceRows(w io.Writer, seq *storage.SequenceColumn) error {
	rows := seq.CompressedRows()
	if err := writeUint32(w, uint32(len(rows))); err != nil {
		return err
	}
	for _, raw := range rows {
		if err := writeBytes(w, raw); err != nil {
			return err
		}
	}
	return nil
}

func readSequenceRows(r io.Reader) ([][]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	rows := make([][]byte, n)
	for i := range rows {
		raw, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		rows[i] = raw
	}
	return rows, nil
}

// loadSequenceColumn reconstructs a sequence column from its two
// on-disk streams: the per-row compressed bytes (seqR) and the
// finalized vertical index (vindexR), both produced by a prior
// writeSequenceRows/VerticalIndex.WriteTo pair.
func loadSequenceColumn(name string, kindName string, reference []byte, seqR, vindexR io.Reader) (*storage.SequenceColumn, error) {
	kind, err := parseAlphabetKind(kindName)
	if err != nil {
		return nil, err
	}
	rows, err := readSequenceRows(seqR)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading sequence rows for %q: %w", name, err)
	}
	vindex, err := storage.ReadVerticalIndex(vindexR, alphabet.For(kind))
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading vertical index for %q: %w", name, err)
	}
	return storage.LoadSequenceColumn(name, kind, reference, vindex, rows)
}

func parseAlphabetKind(name string) (alphabet.Kind, error) {
	switch name {
	case "nucleotide":
		return alphabet.Nucleotide, nil
	case "aminoAcid":
		return alphabet.AminoAcid, nil
	default:
		return 0, fmt.Errorf("snapshot: unknown sequence alphabet %q", name)
	}
}
