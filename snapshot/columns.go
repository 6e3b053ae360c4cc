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
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/GenSpectrum/silo-go/compr"
	"github.com/GenSpectrum/silo-go/date"
	"github.com/GenSpectrum/silo-go/storage"
)

// columnCompressor compresses every metadata column's serialized
// form with zstd before it hits disk. Metadata columns are plain
// scalars (strings, ints, floats, dates) with none of the
// reference-dictionary structure storage/sequence data has, so they
// use the general-purpose codec rather than compr.Dictionary.
var columnCompressor = compr.Compression("zstd")

// writeColumn serializes any metadata column variant, zstd-compresses
// the result, and writes the compressed bytes to w. The wire layout
// is self-contained per column: a caller restoring it only needs to
// already know the column's Kind (recorded in the manifest), not its
// dictionary or any other column's state.
func writeColumn(w io.Writer, col storage.Column) error {
	var buf bytes.Buffer
	var err error
	switch c := col.(type) {
	case *storage.StringColumn:
		err = writeStringColumn(&buf, c)
	case *storage.IntColumn:
		err = writeNumericColumn(&buf, c.Numeric)
	case *storage.FloatColumn:
		err = writeFloatColumn(&buf, c.Numeric)
	case *storage.BoolColumn:
		err = writeBoolColumn(&buf, c)
	case *storage.DateColumn:
		err = writeDateColumn(&buf, c)
	default:
		return fmt.Errorf("snapshot: unsupported column type %T", col)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(columnCompressor.Compress(buf.Bytes(), nil))
	return err
}

// readColumn reads r fully, zstd-decompresses it, and deserializes a
// column of the given kind from the result.
func readColumn(r io.Reader, kind string) (storage.Column, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw, err := compr.DecodeZstd(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompressing column: %w", err)
	}
	br := bytes.NewReader(raw)
	switch kind {
	case "string":
		return readStringColumn(br)
	case "int":
		return readIntColumn(br)
	case "float":
		return readFloatColumn(br)
	case "bool":
		return readBoolColumn(br)
	case "date":
		return readDateColumn(br)
	default:
		return nil, fmt.Errorf("snapshot: unknown column kind %q", kind)
	}
}

func writeStringColumn(w io.Writer, c *storage.StringColumn) error {
	n := c.NumValues()
	if err := writeUint32(w, uint32(n)); err != nil {
		return err
	}
	for row := 0; row < n; row++ {
		if c.IsNull(uint32(row)) {
			if err := writeString(w, ""); err != nil {
				return err
			}
			if err := writeBool(w, true); err != nil {
				return err
			}
			continue
		}
		if err := writeString(w, c.GetValue(uint32(row))); err != nil {
			return err
		}
		if err := writeBool(w, false); err != nil {
			return err
		}
	}
	return nil
}

func readStringColumn(r io.Reader) (*storage.StringColumn, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	col := storage.NewStringColumn(storage.NewDictionary())
	col.Reserve(int(n))
	for row := uint32(0); row < n; row++ {
		value, err := readString(r)
		if err != nil {
			return nil, err
		}
		isNull, err := readBool(r)
		if err != nil {
			return nil, err
		}
		if isNull {
			col.InsertNull()
		} else {
			col.Insert(value)
		}
	}
	return col, nil
}

func writeNumericColumn(w io.Writer, c *storage.Numeric[int64]) error {
	n := c.NumValues()
	if err := writeUint32(w, uint32(n)); err != nil {
		return err
	}
	for row := 0; row < n; row++ {
		if err := writeBool(w, c.IsNull(uint32(row))); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(c.GetValue(uint32(row)))); err != nil {
			return err
		}
	}
	return nil
}

func readIntColumn(r io.Reader) (*storage.IntColumn, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	col := storage.NewIntColumn()
	col.Reserve(int(n))
	for row := uint32(0); row < n; row++ {
		isNull, err := readBool(r)
		if err != nil {
			return nil, err
		}
		raw, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		if isNull {
			col.InsertNull()
		} else {
			col.Insert(int64(raw))
		}
	}
	return col, nil
}

func writeFloatColumn(w io.Writer, c *storage.Numeric[float64]) error {
	n := c.NumValues()
	if err := writeUint32(w, uint32(n)); err != nil {
		return err
	}
	for row := 0; row < n; row++ {
		if err := writeBool(w, c.IsNull(uint32(row))); err != nil {
			return err
		}
		if err := writeUint64(w, math.Float64bits(c.GetValue(uint32(row)))); err != nil {
			return err
		}
	}
	return nil
}

func readFloatColumn(r io.Reader) (*storage.FloatColumn, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	col := storage.NewFloatColumn()
	col.Reserve(int(n))
	for row := uint32(0); row < n; row++ {
		isNull, err := readBool(r)
		if err != nil {
			return nil, err
		}
		raw, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		if isNull {
			col.InsertNull()
		} else {
			col.Insert(math.Float64frombits(raw))
		}
	}
	return col, nil
}

func writeBoolColumn(w io.Writer, c *storage.BoolColumn) error {
	n := c.NumValues()
	if err := writeUint32(w, uint32(n)); err != nil {
		return err
	}
	for row := 0; row < n; row++ {
		value, ok := c.GetValue(uint32(row))
		if !ok {
			if err := writeBool(w, true); err != nil {
				return err
			}
			if err := writeBool(w, false); err != nil {
				return err
			}
			continue
		}
		if err := writeBool(w, false); err != nil {
			return err
		}
		if err := writeBool(w, value); err != nil {
			return err
		}
	}
	return nil
}

func readBoolColumn(r io.Reader) (*storage.BoolColumn, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	col := storage.NewBoolColumn()
	for row := uint32(0); row < n; row++ {
		isNull, err := readBool(r)
		if err != nil {
			return nil, err
		}
		value, err := readBool(r)
		if err != nil {
			return nil, err
		}
		if isNull {
			col.InsertNull()
		} else {
			col.Insert(value)
		}
	}
	return col, nil
}

func writeDateColumn(w io.Writer, c *storage.DateColumn) error {
	n := c.NumValues()
	if err := writeUint32(w, uint32(n)); err != nil {
		return err
	}
	if err := writeBool(w, c.IsSorted()); err != nil {
		return err
	}
	for row := 0; row < n; row++ {
		if err := writeUint32(w, uint32(c.GetValue(uint32(row)))); err != nil {
			return err
		}
	}
	return nil
}

func readDateColumn(r io.Reader) (*storage.DateColumn, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	sorted, err := readBool(r)
	if err != nil {
		return nil, err
	}
	col := storage.NewDateColumn(sorted)
	col.Reserve(int(n))
	for row := uint32(0); row < n; row++ {
		raw, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		col.Insert(date.Day(raw))
	}
	return col, nil
}
