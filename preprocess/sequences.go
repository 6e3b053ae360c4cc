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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/storage"
)

const maxSequenceLineSize = 16 << 20

// fastaReader pulls one record at a time out of a multi-FASTA file,
// mirroring the original's FastaReader.nextKey/next two-step
// protocol (read the header, then decide whether to materialize or
// skip its sequence) collapsed into a single next() call since our
// caller always wants both.
type fastaReader struct {
	s          *bufio.Scanner
	nextHeader string
	hasNext    bool
}

func newFastaReader(r io.Reader) *fastaReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxSequenceLineSize)
	f := &fastaReader{s: s}
	f.advance()
	return f
}

func (f *fastaReader) advance() {
	for f.s.Scan() {
		line := f.s.Text()
		if strings.HasPrefix(line, ">") {
			f.nextHeader = strings.TrimSpace(line[1:])
			f.hasNext = true
			return
		}
	}
	f.hasNext = false
}

// next returns the current record's key and sequence bytes (every
// line until the next header, concatenated) and advances to the
// following header. ok is false once the input is exhausted.
func (f *fastaReader) next() (key string, seq []byte, ok bool, err error) {
	if !f.hasNext {
		return "", nil, false, f.s.Err()
	}
	key = f.nextHeader
	var buf bytes.Buffer
	for f.s.Scan() {
		line := f.s.Text()
		if strings.HasPrefix(line, ">") {
			f.nextHeader = strings.TrimSpace(line[1:])
			return key, buf.Bytes(), true, nil
		}
		buf.WriteString(strings.TrimSpace(line))
	}
	f.hasNext = false
	return key, buf.Bytes(), true, f.s.Err()
}

// ndjsonSequenceRecord is one line of the NDJSON sequence format, the
// plain-text analog of the original's zstdfasta_reader input (there,
// each record's genome arrives already zstd-compressed against the
// dictionary; preprocessing here receives the same one-record-per-
// line shape but with the sequence already decompressed to text,
// since nothing upstream of this pipeline shares silo-go's own
// compr.Dictionary encoding).
type ndjsonSequenceRecord struct {
	Key      string `json:"key"`
	Sequence string `json:"sequence"`
}

// readSequenceRecords reads every (key, sequence) pair out of a
// sequence file, dispatching on format.
func readSequenceRecords(r io.Reader, format string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	switch format {
	case "fasta":
		fr := newFastaReader(r)
		for {
			key, seq, ok, err := fr.next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return out, nil
			}
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("duplicate sequence key %q", key)
			}
			out[key] = normalizeSequence(seq)
		}
	case "ndjson":
		s := bufio.NewScanner(r)
		s.Buffer(make([]byte, 64*1024), maxSequenceLineSize)
		for s.Scan() {
			line := s.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var rec ndjsonSequenceRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("ndjson sequence record: %w", err)
			}
			if _, dup := out[rec.Key]; dup {
				return nil, fmt.Errorf("duplicate sequence key %q", rec.Key)
			}
			out[rec.Key] = normalizeSequence([]byte(rec.Sequence))
		}
		if err := s.Err(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown sequence file format %q", format)
	}
}

func normalizeSequence(seq []byte) []byte {
	return bytes.ToUpper(seq)
}

// buildSequenceColumn assembles a SequenceColumn for one batch: every
// row in primaryKeys must have a matching entry in records (keyed by
// the metadata's primary key column value), inserted in row order so
// the vertical index's row numbering lines up with every metadata
// column's.
func buildSequenceColumn(name string, kind alphabet.Kind, reference []byte, primaryKeys []string, records map[string][]byte) (*storage.SequenceColumn, error) {
	col, err := storage.NewSequenceColumn(name, kind, reference)
	if err != nil {
		return nil, err
	}
	for _, key := range primaryKeys {
		seq, ok := records[key]
		if !ok {
			return nil, fmt.Errorf("sequence column %q: no sequence for row %q", name, key)
		}
		if err := col.InsertRow(seq); err != nil {
			return nil, fmt.Errorf("sequence column %q: row %q: %w", name, key, err)
		}
	}
	col.Finalize()
	return col, nil
}

func kindForSchema(kind string) alphabet.Kind {
	if kind == "aminoAcid" {
		return alphabet.AminoAcid
	}
	return alphabet.Nucleotide
}
