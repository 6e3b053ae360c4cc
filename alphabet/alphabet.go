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

// Package alphabet defines the fixed nucleotide and amino-acid
// symbol enumerations used by sequence columns and their vertical
// indices, along with the ambiguity codes a query symbol can
// expand to.
package alphabet

import "fmt"

// Symbol is a compact index into an Alphabet's symbol list. It is
// the unit that vertical indices are keyed on: one bitmap per
// (position, Symbol).
type Symbol uint8

// Kind distinguishes the two fixed alphabets a SequenceColumn can
// be built over.
type Kind uint8

const (
	Nucleotide Kind = iota
	AminoAcid
)

func (k Kind) String() string {
	if k == AminoAcid {
		return "aminoAcid"
	}
	return "nucleotide"
}

// Alphabet is a closed enumeration of symbols plus the ambiguity
// expansions queries may use (e.g. nucleotide "R" matches "A" or
// "G"). Both fixed alphabets share this representation; only their
// symbol tables differ.
type Alphabet struct {
	kind     Kind
	symbols  []byte          // index -> byte, canonical order
	index    map[byte]Symbol // byte -> index
	ambig    map[byte][]Symbol
	gapIndex Symbol // the gap/deletion symbol, used as the default flip candidate tiebreaker
}

// Lookup returns the Symbol for a single-character code, which may
// be a concrete base/residue or an ambiguity code, and whether it
// was recognized.
func (a *Alphabet) Lookup(b byte) (Symbol, bool) {
	s, ok := a.index[b]
	return s, ok
}

// Byte returns the canonical byte for a concrete Symbol.
func (a *Alphabet) Byte(s Symbol) byte {
	return a.symbols[s]
}

// Size returns the number of symbols in the alphabet's table. Every
// stored symbol is counted, including the ambiguity codes (N, R, Y,
// ...) that the nucleotide table holds.
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// Symbols returns every Symbol in the alphabet's table, ambiguity
// codes included, in canonical order.
func (a *Alphabet) Symbols() []Symbol {
	out := make([]Symbol, len(a.symbols))
	for i := range out {
		out[i] = Symbol(i)
	}
	return out
}

// Kind reports which fixed alphabet this is.
func (a *Alphabet) Kind() Kind { return a.kind }

// Expand resolves a query byte (concrete or ambiguous) to the set
// of concrete base symbols it matches. Ambiguity codes (N, R, Y, ...)
// are checked first even though they also occupy their own literal
// vertical-index slot (a sequence can legitimately store a literal
// "N" at a position): querying with an ambiguity code means "match
// any of the bases it covers", not "match the literal ambiguity
// character itself", so the expansion set takes priority over the
// self-match. An unrecognized byte returns ok=false; the compiler
// treats that as an unsatisfiable predicate, not a compile error,
// mirroring how an unknown dictionary value resolves to EMPTY rather
// than failing the query.
func (a *Alphabet) Expand(b byte) ([]Symbol, bool) {
	if set, ok := a.ambig[b]; ok {
		return set, true
	}
	if s, ok := a.index[b]; ok {
		return []Symbol{s}, true
	}
	return nil, false
}

// GapSymbol returns the symbol conventionally preferred as the
// "flipped" (omitted-and-reconstructed-by-complement) base at a
// position when cardinalities tie, matching how the reference
// genome's own symbol is usually the majority symbol in practice.
func (a *Alphabet) GapSymbol() Symbol { return a.gapIndex }

func newAlphabet(kind Kind, symbols string, gap byte, ambig map[byte]string) *Alphabet {
	a := &Alphabet{
		kind:    kind,
		symbols: []byte(symbols),
		index:   make(map[byte]Symbol, len(symbols)),
		ambig:   make(map[byte][]Symbol, len(ambig)),
	}
	for i, b := range []byte(symbols) {
		a.index[b] = Symbol(i)
	}
	gi, ok := a.index[gap]
	if !ok {
		panic(fmt.Sprintf("alphabet: gap symbol %q not in %q", gap, symbols))
	}
	a.gapIndex = gi
	for code, expansion := range ambig {
		set := make([]Symbol, 0, len(expansion))
		for _, b := range []byte(expansion) {
			s, ok := a.index[b]
			if !ok {
				panic(fmt.Sprintf("alphabet: ambiguity %q expands to unknown symbol %q", code, b))
			}
			set = append(set, s)
		}
		a.ambig[code] = set
	}
	return a
}

// Nucleotides is the fixed 16-symbol nucleotide alphabet: the four
// bases, a gap/deletion marker, and the IUPAC ambiguity codes,
// including N (any base).
var Nucleotides = newAlphabet(Nucleotide, "ACGTNRYSWKMBDHV-", '-', map[byte]string{
	'N': "ACGT",
	'R': "AG",
	'Y': "CT",
	'S': "GC",
	'W': "AT",
	'K': "GT",
	'M': "AC",
	'B': "CGT",
	'D': "AGT",
	'H': "ACT",
	'V': "ACG",
})

// AminoAcids is the fixed 21-symbol amino-acid alphabet: the twenty
// standard residues plus a stop codon marker ("*", also the preferred
// per-position flip symbol on a cardinality tie), with IUPAC extended ambiguity codes
// expanding to the residues they cover.
var AminoAcids = newAlphabet(AminoAcid, "ACDEFGHIKLMNPQRSTVWY*", '*', map[byte]string{
	'X': "ACDEFGHIKLMNPQRSTVWY*",
	'B': "DN",
	'Z': "EQ",
	'J': "IL",
})

// For returns the fixed alphabet for kind.
func For(kind Kind) *Alphabet {
	if kind == AminoAcid {
		return AminoAcids
	}
	return Nucleotides
}
