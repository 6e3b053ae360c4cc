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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/storage"
)

// Source is everything a running database holds in memory that Save
// persists to a directory tree, and everything Load reconstructs.
type Source struct {
	Partitions  []*storage.Partition
	LineageTree *lineage.Tree
	Lineage     map[int]*lineage.Index // keyed by Partition.ID()
	BuildID     string                 // stamped by preprocess.Build; opaque outside that
}

// Save writes src to dir as manifest.yaml plus its column/sequence/
// reference/lineage subtrees, recording a BLAKE2b-256 digest of every
// file it writes. dir is created if it does not already exist; an
// existing dir's conflicting files are overwritten.
func Save(dir string, src *Source) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}
	m := newManifest()
	m.BuildID = src.BuildID
	writtenReferences := make(map[string]bool)

	for _, part := range src.Partitions {
		pm := PartitionManifest{ID: part.ID(), RowCount: part.RowCount()}
		partDir := filepath.Join(dir, "partitions", fmt.Sprintf("%d", part.ID()))
		colDir := filepath.Join(partDir, "columns")
		seqDir := filepath.Join(partDir, "sequences")
		if err := os.MkdirAll(colDir, 0o755); err != nil {
			return fmt.Errorf("snapshot: creating %s: %w", colDir, err)
		}
		if err := os.MkdirAll(seqDir, 0o755); err != nil {
			return fmt.Errorf("snapshot: creating %s: %w", seqDir, err)
		}

		for _, name := range sortedStrings(part.ColumnNames()) {
			col, _ := part.Column(name)
			relFile := filepath.Join("columns", name+".col")
			absFile := filepath.Join(partDir, relFile)
			if err := writeFile(absFile, func(f *os.File) error { return writeColumn(f, col) }); err != nil {
				return err
			}
			digest, err := digestFile(absFile)
			if err != nil {
				return err
			}
			snapPath := filepath.Join("partitions", fmt.Sprintf("%d", part.ID()), relFile)
			m.Digests[snapPath] = digest
			pm.Columns = append(pm.Columns, ColumnManifest{Name: name, Kind: col.Kind().String(), File: relFile})
		}

		for _, name := range sortedStrings(part.SequenceColumnNames()) {
			seq, _ := part.SequenceColumn(name)
			if !writtenReferences[name] {
				refFile := filepath.Join(dir, "references", name+".fasta")
				if err := os.MkdirAll(filepath.Dir(refFile), 0o755); err != nil {
					return fmt.Errorf("snapshot: creating references dir: %w", err)
				}
				if err := writeFile(refFile, func(f *os.File) error {
					return writeReferenceFasta(f, name, seq.Reference())
				}); err != nil {
					return err
				}
				digest, err := digestFile(refFile)
				if err != nil {
					return err
				}
				m.Digests[filepath.Join("references", name+".fasta")] = digest
				m.References[name] = filepath.Join("references", name+".fasta")
				writtenReferences[name] = true
			}

			relSeqFile := filepath.Join("sequences", name+".seq")
			relVindexFile := filepath.Join("sequences", name+".vindex")
			absSeqFile := filepath.Join(partDir, relSeqFile)
			absVindexFile := filepath.Join(partDir, relVindexFile)
			if err := writeFile(absSeqFile, func(f *os.File) error { return writeSequenceRows(f, seq) }); err != nil {
				return err
			}
			if err := writeFile(absVindexFile, func(f *os.File) error { _, err := seq.VIndex().WriteTo(f); return err }); err != nil {
				return err
			}
			for _, pair := range [][2]string{{absSeqFile, relSeqFile}, {absVindexFile, relVindexFile}} {
				digest, err := digestFile(pair[0])
				if err != nil {
					return err
				}
				m.Digests[filepath.Join("partitions", fmt.Sprintf("%d", part.ID()), pair[1])] = digest
			}
			pm.Sequences = append(pm.Sequences, SequenceManifest{
				Name:       name,
				Kind:       seq.Alphabet().Kind().String(),
				Reference:  name,
				SeqFile:    relSeqFile,
				VindexFile: relVindexFile,
			})
		}

		if idx, ok := src.Lineage[part.ID()]; ok {
			leaves := idx.RowLeaves(part.RowCount())
			relFile := "lineage.idx"
			absFile := filepath.Join(partDir, relFile)
			if err := writeFile(absFile, func(f *os.File) error { return writeLineageRows(f, leaves) }); err != nil {
				return err
			}
			digest, err := digestFile(absFile)
			if err != nil {
				return err
			}
			m.Digests[filepath.Join("partitions", fmt.Sprintf("%d", part.ID()), relFile)] = digest
			pm.LineageRows = relFile
		}

		m.Partitions = append(m.Partitions, pm)
	}

	if src.LineageTree != nil && src.LineageTree.Len() > 0 {
		lineageDir := filepath.Join(dir, "lineage")
		if err := os.MkdirAll(lineageDir, 0o755); err != nil {
			return fmt.Errorf("snapshot: creating %s: %w", lineageDir, err)
		}
		treeFile := filepath.Join(lineageDir, "tree.yaml")
		if err := writeLineageTree(treeFile, src.LineageTree); err != nil {
			return err
		}
		digest, err := digestFile(treeFile)
		if err != nil {
			return err
		}
		m.Digests[filepath.Join("lineage", "tree.yaml")] = digest
		m.LineageFile = filepath.Join("lineage", "tree.yaml")
	}

	return writeManifest(filepath.Join(dir, "manifest.yaml"), m)
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: writing %s: %w", path, err)
	}
	return f.Close()
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
