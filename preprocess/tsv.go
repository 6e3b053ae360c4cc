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
	"io"
	"strings"
)

const maxMetadataLineSize = 8 << 20

// tsvReader reads one TSV record per line. Unlike CSV, TSV uses no
// quoting; a field that needs to carry a literal tab, backslash, or
// newline escapes it instead (\t, \\, \n, \r).
type tsvReader struct {
	s *bufio.Scanner
}

func newTSVReader(r io.Reader) *tsvReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxMetadataLineSize)
	return &tsvReader{s: s}
}

// nextRow returns the next non-blank row's fields, or io.EOF once
// the input is exhausted.
func (t *tsvReader) nextRow() ([]string, error) {
	for t.s.Scan() {
		line := t.s.Text()
		if line != "" {
			return splitTSVLine(line), nil
		}
	}
	if err := t.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func splitTSVLine(line string) []string {
	parts := strings.Split(line, "\t")
	out := make([]string, len(parts))
	for i, p := range parts {
		if strings.IndexByte(p, '\\') == -1 {
			out[i] = p
			continue
		}
		out[i] = unescapeTSVField(p)
	}
	return out
}

func unescapeTSVField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 'r':
				b.WriteByte('\r')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
