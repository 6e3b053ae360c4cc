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

// Package snapshot persists and loads a database as a directory tree:
// a manifest.yaml describing the schema and version, one
// columns/sequences subtree per partition, the reference genomes, and
// the lineage tree. See SPEC_FULL.md §11 for the directory layout.
package snapshot

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// FormatVersion is the current on-disk format version. Load rejects
// any manifest whose Version does not match, returning a
// LoadDatabaseError since an incompatible snapshot must not be served.
const FormatVersion = 1

// ColumnManifest describes one metadata column's on-disk file and
// declared type, needed to reconstruct the right concrete
// storage.Column on load.
type ColumnManifest struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "string" | "int" | "float" | "bool" | "date"
	File string `json:"file"` // relative to the partition directory
}

// SequenceManifest describes one sequence column's on-disk files.
type SequenceManifest struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`       // "nucleotide" | "aminoAcid"
	Reference  string `json:"reference"`  // reference name, key into Manifest.References
	SeqFile    string `json:"seqFile"`    // per-row compressed sequences
	VindexFile string `json:"vindexFile"` // vertical index bitmaps
}

// PartitionManifest describes one partition's row count and column
// files, all relative to <snapshot>/partitions/<id>/.
type PartitionManifest struct {
	ID          int                `json:"id"`
	RowCount    uint32             `json:"rowCount"`
	Columns     []ColumnManifest   `json:"columns"`
	Sequences   []SequenceManifest `json:"sequences"`
	LineageRows string             `json:"lineageRows,omitempty"` // relative to the partition directory
}

// Manifest is the top-level manifest.yaml document.
type Manifest struct {
	Version     int                 `json:"version"`
	BuildID     string              `json:"buildId,omitempty"` // stamped by preprocess.Build, surfaced by GET /info
	Partitions  []PartitionManifest `json:"partitions"`
	References  map[string]string   `json:"references"` // name -> file under references/
	LineageFile string              `json:"lineageFile,omitempty"`
	// Digests maps every file path written by this snapshot (relative
	// to the snapshot directory root) to its hex BLAKE2b-256 digest.
	// Checked before any column is deserialized on load (§11, NEW).
	Digests map[string]string `json:"digests"`
}

func newManifest() *Manifest {
	return &Manifest{
		Version:    FormatVersion,
		References: make(map[string]string),
		Digests:    make(map[string]string),
	}
}

func writeManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("snapshot: encoding manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("snapshot: decoding manifest: %w", err)
	}
	return &m, nil
}
