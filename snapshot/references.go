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
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const referenceLineWidth = 70

// writeReferenceFasta writes a single-record FASTA file holding name
// and sequence, wrapped at referenceLineWidth columns, matching the
// conventional NCBI/Pango reference genome layout preprocess/ also
// reads.
func writeReferenceFasta(w io.Writer, name string, sequence []byte) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, ">%s\n", name); err != nil {
		return err
	}
	for i := 0; i < len(sequence); i += referenceLineWidth {
		end := i + referenceLineWidth
		if end > len(sequence) {
			end = len(sequence)
		}
		if _, err := bw.Write(sequence[i:end]); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readReferenceFasta reads a single-record FASTA file back into its
// header name and concatenated (unwrapped) sequence bytes.
func readReferenceFasta(r io.Reader) (name string, sequence []byte, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var buf bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if name != "" {
				return "", nil, fmt.Errorf("snapshot: reference fasta has more than one record")
			}
			name = line[1:]
			continue
		}
		buf.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("snapshot: reading reference fasta: %w", err)
	}
	if name == "" {
		return "", nil, fmt.Errorf("snapshot: reference fasta has no header")
	}
	return name, buf.Bytes(), nil
}
