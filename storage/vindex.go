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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/bitmap"
)

// VerticalIndex is, conceptually, a bitmap per (position, symbol):
// for every position in a sequence column, the set of rows whose
// residue at that position equals each symbol. At finalization one
// symbol per position (the one with the largest population; on a tie
// the alphabet's GapSymbol wins, otherwise the first in canonical
// order; no option selects a different symbol) is "flipped": its bitmap is
// dropped and reconstructed on demand as the complement of the
// union of the rest, trading one extra Complement call on a
// minority-path query for avoiding storage of the majority-path
// bitmap at every position.
type VerticalIndex struct {
	alphabet *alphabet.Alphabet
	length   int
	rows     uint32
	built    bool

	// per-position, per-symbol bitmap; position*symbolCount+symbol
	bitmaps []*bitmap.Set
	flipped []alphabet.Symbol
}

// NewVerticalIndex returns a builder for a sequence column of the
// given length over alpha.
func NewVerticalIndex(alpha *alphabet.Alphabet, length int) *VerticalIndex {
	n := length * alpha.Size()
	return &VerticalIndex{
		alphabet: alpha,
		length:   length,
		bitmaps:  make([]*bitmap.Set, n),
		flipped:  make([]alphabet.Symbol, length),
	}
}

func (v *VerticalIndex) slot(pos int, sym alphabet.Symbol) int {
	return pos*v.alphabet.Size() + int(sym)
}

// Observe records that row has symbol sym at position pos. It may
// only be called before Finalize.
func (v *VerticalIndex) Observe(row uint32, pos int, sym alphabet.Symbol) {
	if v.built {
		panic("storage: Observe called on a finalized VerticalIndex")
	}
	i := v.slot(pos, sym)
	b := v.bitmaps[i]
	if b == nil {
		b = bitmap.New()
		v.bitmaps[i] = b
	}
	b.Add(row)
	if row+1 > v.rows {
		v.rows = row + 1
	}
}

// Finalize picks, for each position, the symbol with maximum
// cardinality to flip (omit and reconstruct via complement), then
// discards its stored bitmap. After Finalize, Observe must not be
// called again.
func (v *VerticalIndex) Finalize(rowCount uint32) {
	v.rows = rowCount
	for pos := 0; pos < v.length; pos++ {
		best := alphabet.Symbol(0)
		bestCard := uint64(0)
		for _, sym := range v.alphabet.Symbols() {
			b := v.bitmaps[v.slot(pos, sym)]
			if b == nil {
				continue
			}
			if c := b.GetCardinality(); c > bestCard || (c == bestCard && sym == v.alphabet.GapSymbol()) {
				bestCard = c
				best = sym
			}
		}
		v.flipped[pos] = best
		v.bitmaps[v.slot(pos, best)] = nil // reconstructed on demand
	}
	v.built = true
}

// FlippedSymbol returns the symbol omitted at pos.
func (v *VerticalIndex) FlippedSymbol(pos int) alphabet.Symbol { return v.flipped[pos] }

// SymbolAt returns the bitmap of rows whose value at pos equals sym.
// If sym is the flipped symbol at pos, the result is computed as an
// owned complement of the union of every other symbol's bitmap;
// otherwise it is a borrowed view of the stored bitmap.
func (v *VerticalIndex) SymbolAt(pos int, sym alphabet.Symbol) (bitmap.COW, error) {
	if pos < 0 || pos >= v.length {
		return bitmap.COW{}, fmt.Errorf("storage: position %d out of range [0,%d)", pos, v.length)
	}
	if sym == v.flipped[pos] {
		others := make([]*bitmap.Set, 0, v.alphabet.Size()-1)
		for _, s := range v.alphabet.Symbols() {
			if s == sym {
				continue
			}
			if b := v.bitmaps[v.slot(pos, s)]; b != nil {
				others = append(others, b)
			}
		}
		union := bitmap.Union(others...)
		return bitmap.Own(union).Complement(v.rows), nil
	}
	b := v.bitmaps[v.slot(pos, sym)]
	if b == nil {
		return bitmap.Empty(), nil
	}
	return bitmap.Borrow(b), nil
}

// WriteTo serializes the finalized index: per position, the flipped
// symbol followed by every other symbol's bitmap (an empty bitmap
// marks "no row carries this symbol here" rather than omitting the
// slot, so the reader never has to guess which symbols were
// observed).
func (v *VerticalIndex) WriteTo(w io.Writer) (int64, error) {
	var written int64
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(v.length))
	binary.BigEndian.PutUint32(hdr[4:8], v.rows)
	n, err := w.Write(hdr[:])
	written += int64(n)
	if err != nil {
		return written, err
	}
	for pos := 0; pos < v.length; pos++ {
		if n, err := w.Write([]byte{byte(v.flipped[pos])}); err != nil {
			return written + int64(n), err
		} else {
			written += int64(n)
		}
		for _, sym := range v.alphabet.Symbols() {
			if sym == v.flipped[pos] {
				continue
			}
			b := v.bitmaps[v.slot(pos, sym)]
			if b == nil {
				b = bitmap.New()
			}
			n, err := bitmap.WriteTo(b, w)
			written += n
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// ReadVerticalIndex deserializes an index written by WriteTo for a
// sequence column over alpha.
func ReadVerticalIndex(r io.Reader, alpha *alphabet.Alphabet) (*VerticalIndex, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("storage: reading vertical index header: %w", err)
	}
	length := int(binary.BigEndian.Uint32(hdr[0:4]))
	rows := binary.BigEndian.Uint32(hdr[4:8])
	v := NewVerticalIndex(alpha, length)
	v.rows = rows
	v.built = true
	for pos := 0; pos < length; pos++ {
		var symByte [1]byte
		if _, err := io.ReadFull(r, symByte[:]); err != nil {
			return nil, fmt.Errorf("storage: reading flipped symbol at position %d: %w", pos, err)
		}
		flipped := alphabet.Symbol(symByte[0])
		v.flipped[pos] = flipped
		for _, sym := range alpha.Symbols() {
			if sym == flipped {
				continue
			}
			b, err := bitmap.ReadFrom(r)
			if err != nil {
				return nil, fmt.Errorf("storage: reading bitmap at position %d symbol %q: %w",
					pos, alpha.Byte(sym), err)
			}
			if !b.IsEmpty() {
				v.bitmaps[v.slot(pos, sym)] = b
			}
		}
	}
	return v, nil
}

// CheckInvariants verifies that, for every position, the union of
// every symbol's bitmap (reconstructing the flipped one) covers
// exactly [0, rows) and that no two symbols share a row. It is
// intended for tests and preprocessing validation, not the query
// path.
func (v *VerticalIndex) CheckInvariants() error {
	for pos := 0; pos < v.length; pos++ {
		seen := bitmap.New()
		total := uint64(0)
		for _, sym := range v.alphabet.Symbols() {
			cow, err := v.SymbolAt(pos, sym)
			if err != nil {
				return err
			}
			raw := cow.Raw()
			overlap := raw.Clone()
			overlap.And(seen)
			if !overlap.IsEmpty() {
				return fmt.Errorf("storage: position %d symbol %q overlaps a previous symbol",
					pos, v.alphabet.Byte(sym))
			}
			seen.Or(raw)
			total += raw.GetCardinality()
		}
		if total != uint64(v.rows) || seen.GetCardinality() != uint64(v.rows) {
			return fmt.Errorf("storage: position %d does not cover all %d rows (got %d)",
				pos, v.rows, seen.GetCardinality())
		}
	}
	return nil
}
