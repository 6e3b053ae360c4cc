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

// Package config loads the database's schema config (column
// declarations, sequence reference names) and the server's runtime
// config (worker-pool size, snapshot directory, listen address) from
// YAML via sigs.k8s.io/yaml.
package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ColumnKind names one of the typed metadata column variants a
// schema can declare. It is a distinct string type from
// storage.Kind so a malformed config value ("strnig") surfaces as a
// config-parsing error rather than silently aliasing to
// storage.KindString's zero value.
type ColumnKind string

const (
	ColumnString ColumnKind = "string"
	ColumnInt    ColumnKind = "int"
	ColumnFloat  ColumnKind = "float"
	ColumnBool   ColumnKind = "bool"
	ColumnDate   ColumnKind = "date"
)

// ColumnSchema declares one metadata column's name and type.
type ColumnSchema struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// SequenceSchema declares one sequence column: a nucleotide segment
// or an amino-acid gene, aligned against a named entry in
// reference-genomes.json.
type SequenceSchema struct {
	Name      string `json:"name"`      // segment name ("main") or gene name ("ORF1a")
	Kind      string `json:"kind"`      // "nucleotide" | "aminoAcid"
	Reference string `json:"reference"` // key into reference-genomes.json's nucleotide_sequences/aa_sequences map
}

// Schema is the database's schema config: every declared metadata
// column and sequence column, plus the two special-purpose column
// names the preprocessing pipeline and query engine both need to
// know about (the lineage column is optional; a database with no
// pango-lineage-style hierarchy simply omits it).
type Schema struct {
	PrimaryKeyColumn string           `json:"primaryKeyColumn"`
	LineageColumn    string           `json:"lineageColumn,omitempty"`
	Columns          []ColumnSchema   `json:"columns"`
	Sequences        []SequenceSchema `json:"sequences"`
	// PartitionSize bounds how many rows preprocess/ puts in each
	// partition; zero means "one partition for the whole input".
	PartitionSize int `json:"partitionSize,omitempty"`
}

// LoadSchema reads and parses a schema config file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading schema %s: %w", path, err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: decoding schema %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &s, nil
}

func (s *Schema) validate() error {
	if s.PrimaryKeyColumn == "" {
		return fmt.Errorf("primaryKeyColumn is required")
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		switch c.Kind {
		case ColumnString, ColumnInt, ColumnFloat, ColumnBool, ColumnDate:
		default:
			return fmt.Errorf("column %q: unknown kind %q", c.Name, c.Kind)
		}
	}
	if s.LineageColumn != "" && !seen[s.LineageColumn] {
		return fmt.Errorf("lineageColumn %q is not declared as a column", s.LineageColumn)
	}
	for _, seq := range s.Sequences {
		if seq.Kind != "nucleotide" && seq.Kind != "aminoAcid" {
			return fmt.Errorf("sequence %q: unknown kind %q", seq.Name, seq.Kind)
		}
	}
	return nil
}

// Column returns the declared schema for name, if any.
func (s *Schema) Column(name string) (ColumnSchema, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}
