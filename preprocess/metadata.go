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
	"io"
	"math"
	"strconv"

	"github.com/GenSpectrum/silo-go/config"
	"github.com/GenSpectrum/silo-go/date"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// metadataBatch is one partition's worth of metadata: every declared
// column, the primary key and (if declared) lineage column's raw
// values in row order, for sequence-file alignment and lineage-index
// construction.
type metadataBatch struct {
	Columns       map[string]storage.Column
	PrimaryKeys   []string
	LineageValues []string // empty string means "no lineage assigned"
	RowCount      uint32
}

// readMetadata reads a TSV metadata file into row batches of at most
// schema.PartitionSize rows (or one batch for the whole file when
// PartitionSize is zero), rejecting headers not declared in schema
// and string columns share one Dictionary across every batch so a
// later query never has to reconcile distinct ids for the same
// value across partitions.
func readMetadata(r io.Reader, schema *config.Schema) ([]*metadataBatch, error) {
	tr := newTSVReader(r)
	header, err := tr.nextRow()
	if err != nil {
		return nil, siloerr.New(siloerr.PreprocessingError, "metadata: reading header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}
	for _, c := range schema.Columns {
		if _, ok := colIndex[c.Name]; !ok {
			return nil, siloerr.New(siloerr.PreprocessingError, "metadata: missing declared column %q", c.Name)
		}
	}
	for _, name := range header {
		if _, ok := schema.Column(name); !ok {
			return nil, siloerr.New(siloerr.PreprocessingError, "metadata: header has undeclared column %q", name)
		}
	}
	pkIdx, ok := colIndex[schema.PrimaryKeyColumn]
	if !ok {
		return nil, siloerr.New(siloerr.PreprocessingError, "metadata: missing primary key column %q", schema.PrimaryKeyColumn)
	}

	batchSize := schema.PartitionSize
	if batchSize <= 0 {
		batchSize = math.MaxInt32
	}

	dicts := make(map[string]*storage.Dictionary, len(schema.Columns))
	var batches []*metadataBatch
	var cur *metadataBatch
	startBatch := func() {
		cur = &metadataBatch{Columns: make(map[string]storage.Column, len(schema.Columns))}
		for _, c := range schema.Columns {
			cur.Columns[c.Name] = newMetadataColumn(c, dicts)
		}
	}
	startBatch()

	rowNr := 1
	for {
		fields, err := tr.nextRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, siloerr.New(siloerr.PreprocessingError, "metadata: row %d: %w", rowNr, err)
		}
		rowNr++

		for _, c := range schema.Columns {
			raw := fieldAt(fields, colIndex[c.Name])
			if err := insertMetadataValue(cur.Columns[c.Name], c.Kind, raw); err != nil {
				return nil, siloerr.New(siloerr.PreprocessingError, "metadata: row %d column %q: %w", rowNr, c.Name, err)
			}
		}
		cur.PrimaryKeys = append(cur.PrimaryKeys, fieldAt(fields, pkIdx))
		if schema.LineageColumn != "" {
			cur.LineageValues = append(cur.LineageValues, fieldAt(fields, colIndex[schema.LineageColumn]))
		}
		cur.RowCount++

		if int(cur.RowCount) >= batchSize {
			batches = append(batches, cur)
			startBatch()
		}
	}
	if cur.RowCount > 0 || len(batches) == 0 {
		batches = append(batches, cur)
	}
	return batches, nil
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func newMetadataColumn(c config.ColumnSchema, dicts map[string]*storage.Dictionary) storage.Column {
	switch c.Kind {
	case config.ColumnString:
		dict, ok := dicts[c.Name]
		if !ok {
			dict = storage.NewDictionary()
			dicts[c.Name] = dict
		}
		return storage.NewStringColumn(dict)
	case config.ColumnInt:
		return storage.NewIntColumn()
	case config.ColumnFloat:
		return storage.NewFloatColumn()
	case config.ColumnBool:
		return storage.NewBoolColumn()
	case config.ColumnDate:
		return storage.NewDateColumn(false)
	default:
		panic("preprocess: unreachable column kind " + string(c.Kind))
	}
}

func insertMetadataValue(col storage.Column, kind config.ColumnKind, raw string) error {
	switch kind {
	case config.ColumnString:
		sc := col.(*storage.StringColumn)
		if raw == "" {
			sc.InsertNull()
		} else {
			sc.Insert(raw)
		}
	case config.ColumnInt:
		ic := col.(*storage.IntColumn)
		if raw == "" {
			ic.InsertNull()
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		ic.Insert(v)
	case config.ColumnFloat:
		fc := col.(*storage.FloatColumn)
		if raw == "" {
			fc.InsertNull()
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fc.Insert(v)
	case config.ColumnBool:
		bc := col.(*storage.BoolColumn)
		if raw == "" {
			bc.InsertNull()
			return nil
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		bc.Insert(v)
	case config.ColumnDate:
		dc := col.(*storage.DateColumn)
		d, err := date.Parse(raw)
		if err != nil {
			return err
		}
		dc.Insert(d)
	}
	return nil
}
