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
	"bufio"
	"encoding/json"
	"io"
)

// WriteNDJSON writes one JSON object per record, as Details' default
// response format.
func WriteNDJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r.Values); err != nil {
			return err
		}
	}
	return nil
}

// fastaLineWidth is the column width FASTA sequence lines wrap at.
const fastaLineWidth = 60

// WriteFasta writes records in the ">id\nSEQUENCE\n" form §6
// specifies, wrapping sequence lines at fastaLineWidth columns.
func WriteFasta(w io.Writer, records []FastaRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(">" + r.ID + "\n"); err != nil {
			return err
		}
		for i := 0; i < len(r.Sequence); i += fastaLineWidth {
			end := i + fastaLineWidth
			if end > len(r.Sequence) {
				end = len(r.Sequence)
			}
			if _, err := bw.Write(r.Sequence[i:end]); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
