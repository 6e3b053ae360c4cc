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

// Package preprocess builds an in-memory database from a metadata
// TSV, one sequence file per declared segment/gene, a
// reference-genomes.json, and (optionally) a lineage definitions
// file, in partition-sized batches. See SPEC_FULL.md §12.
package preprocess

import (
	"os"

	"github.com/google/uuid"

	"github.com/GenSpectrum/silo-go/config"
	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/snapshot"
	"github.com/GenSpectrum/silo-go/storage"
)

// SequenceFileInput names one declared sequence column's source
// file and its format.
type SequenceFileInput struct {
	Path   string
	Format string // "fasta" | "ndjson"
}

// Input is everything one preprocessing run needs.
type Input struct {
	Schema                 *config.Schema
	MetadataPath           string
	ReferenceGenomesPath   string
	SequenceFiles          map[string]SequenceFileInput // keyed by config.SequenceSchema.Name
	LineageDefinitionsPath string                       // optional; empty means no lineage tree
}

// Build runs the full pipeline and returns a ready-to-serve database,
// or the first PreprocessingError encountered — in which case no
// partial database is published; callers must treat any error as
// the whole build having failed.
func Build(input Input) (*snapshot.Source, error) {
	schema := input.Schema

	metaFile, err := os.Open(input.MetadataPath)
	if err != nil {
		return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
	}
	batches, err := readMetadata(metaFile, schema)
	metaFile.Close()
	if err != nil {
		return nil, err
	}

	rg, err := loadReferenceGenomes(input.ReferenceGenomesPath)
	if err != nil {
		return nil, err
	}

	referenceBytes := make(map[string][]byte, len(schema.Sequences))
	sequenceRecords := make(map[string]map[string][]byte, len(schema.Sequences))
	for _, seqSchema := range schema.Sequences {
		fi, ok := input.SequenceFiles[seqSchema.Name]
		if !ok {
			return nil, siloerr.New(siloerr.PreprocessingError, "no sequence file given for %q", seqSchema.Name)
		}
		ref, err := rg.lookup(seqSchema.Kind, seqSchema.Reference)
		if err != nil {
			return nil, siloerr.New(siloerr.PreprocessingError, "sequence %q: %w", seqSchema.Name, err)
		}
		referenceBytes[seqSchema.Name] = ref

		f, err := os.Open(fi.Path)
		if err != nil {
			return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
		}
		records, err := readSequenceRecords(f, fi.Format)
		f.Close()
		if err != nil {
			return nil, siloerr.New(siloerr.PreprocessingError, "sequence file %s: %w", fi.Path, err)
		}
		sequenceRecords[seqSchema.Name] = records
	}

	var tree *lineage.Tree
	if input.LineageDefinitionsPath != "" {
		tree, err = loadLineageTree(input.LineageDefinitionsPath)
		if err != nil {
			return nil, err
		}
	} else {
		tree = lineage.NewTree()
	}

	src := &snapshot.Source{
		LineageTree: tree,
		Lineage:     make(map[int]*lineage.Index, len(batches)),
		BuildID:     uuid.NewString(),
	}
	for i, batch := range batches {
		part := storage.NewPartition(i)
		for name, col := range batch.Columns {
			if err := part.AddColumn(name, col); err != nil {
				return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
			}
		}
		for _, seqSchema := range schema.Sequences {
			col, err := buildSequenceColumn(
				seqSchema.Name,
				kindForSchema(seqSchema.Kind),
				referenceBytes[seqSchema.Name],
				batch.PrimaryKeys,
				sequenceRecords[seqSchema.Name],
			)
			if err != nil {
				return nil, siloerr.New(siloerr.PreprocessingError, "partition %d: %w", i, err)
			}
			if err := part.AddSequenceColumn(seqSchema.Name, col); err != nil {
				return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
			}
		}
		part.SetRowCount(batch.RowCount)
		if err := part.CheckConsistency(); err != nil {
			return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
		}

		if schema.LineageColumn != "" {
			src.Lineage[i] = buildLineageIndex(tree, batch.LineageValues)
		} else {
			src.Lineage[i] = lineage.NewIndex(tree)
		}
		src.Partitions = append(src.Partitions, part)
	}
	return src, nil
}
