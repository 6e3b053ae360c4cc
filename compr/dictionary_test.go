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

package compr

import (
	"bytes"
	"testing"
)

func TestDictionaryRoundTrip(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT")
	dict, err := NewDictionary(ref)
	if err != nil {
		t.Fatal(err)
	}
	defer dict.Close()

	seqs := [][]byte{
		ref,
		append([]byte(nil), append(bytes.Clone(ref[:10]), append([]byte("NNNN"), ref[14:]...)...)...),
		[]byte("short"),
		{},
	}
	for _, seq := range seqs {
		cmp := dict.Compress(seq, nil)
		out, err := dict.Decompress(cmp)
		if err != nil {
			t.Fatalf("decompress: %v", err)
		}
		if !bytes.Equal(out, seq) {
			t.Fatalf("round trip mismatch: got %q want %q", out, seq)
		}
	}
}

func TestDictionaryDivergesFromReference(t *testing.T) {
	ref := bytes.Repeat([]byte("ACGT"), 200)
	dict, err := NewDictionary(ref)
	if err != nil {
		t.Fatal(err)
	}
	defer dict.Close()

	mutated := append([]byte(nil), ref...)
	mutated[10] = 'N'
	full := dict.Compress(ref, nil)
	partial := dict.Compress(mutated, nil)
	// a sequence identical to the reference should compress to a
	// much smaller payload than one bearing a mutation, since the
	// identical case is nearly all dictionary back-references
	if len(full) >= len(partial) {
		t.Fatalf("expected exact match to compress smaller: %d >= %d", len(full), len(partial))
	}
}
