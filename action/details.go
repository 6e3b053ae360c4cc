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
	"fmt"

	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/storage"
)

// Details projects Columns (every metadata column, if empty) from
// each matched row and streams them as records.
type Details struct {
	Columns   []string
	OrderBy   string // empty: no cross-partition ordering guarantee
	BatchSize int
}

func (Details) Kind() Kind { return KindDetails }

// Record is one projected row: column name to JSON-marshalable value.
type Record struct {
	PartitionID int
	Row         uint32
	Values      map[string]any
}

// Evaluate streams rows through part in batches, projecting Columns
// (or every declared metadata column when Columns is empty) into one
// Record per row. Within a partition, records come out in ascending
// row-id order, per §4.7's ordering guarantee.
func (d Details) Evaluate(part *storage.Partition, rows bitmap.COW) ([]Record, error) {
	columns := d.Columns
	if len(columns) == 0 {
		columns = part.ColumnNames()
	}
	cols := make([]storage.Column, len(columns))
	for i, name := range columns {
		col, ok := part.Column(name)
		if !ok {
			return nil, fmt.Errorf("action: unknown column %q", name)
		}
		cols[i] = col
	}

	var out []Record
	reader := NewBatchedBitmapReader(rows, d.BatchSize)
	for {
		batch, ok := reader.Next()
		if !ok {
			break
		}
		for _, row := range batch {
			values := make(map[string]any, len(columns))
			for i, name := range columns {
				v, err := columnValue(cols[i], row)
				if err != nil {
					return nil, err
				}
				values[name] = v
			}
			out = append(out, Record{PartitionID: part.ID(), Row: row, Values: values})
		}
	}
	return out, nil
}

// orderKey returns the record's value to sort ORDER_BY records by.
// Every value is compared by its %v string rendering, so an absent or
// null value sorts as the string "<nil>".
func orderKey(r Record, column string) string {
	return fmt.Sprintf("%v", r.Values[column])
}
