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

	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// Load reads a directory tree written by Save back into a Source,
// verifying every file's recorded digest before deserializing it and
// rejecting the whole snapshot on the first version mismatch or
// corrupted file rather than returning a partially loaded database.
func Load(dir string) (*Source, error) {
	m, err := readManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
	}
	if m.Version != FormatVersion {
		return nil, siloerr.New(siloerr.LoadDatabaseError,
			"snapshot: %s was written by format version %d, this binary reads version %d",
			dir, m.Version, FormatVersion)
	}

	references := make(map[string][]byte)
	for name, relFile := range m.References {
		abs := filepath.Join(dir, relFile)
		if err := verifyManifestDigest(m, relFile, abs); err != nil {
			return nil, err
		}
		_, seq, err := readReferenceFastaFile(abs)
		if err != nil {
			return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
		}
		references[name] = seq
	}

	var tree *lineage.Tree
	if m.LineageFile != "" {
		abs := filepath.Join(dir, m.LineageFile)
		if err := verifyManifestDigest(m, m.LineageFile, abs); err != nil {
			return nil, err
		}
		tree, err = readLineageTree(abs)
		if err != nil {
			return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
		}
	} else {
		tree = lineage.NewTree()
	}

	src := &Source{LineageTree: tree, Lineage: make(map[int]*lineage.Index), BuildID: m.BuildID}
	for _, pm := range m.Partitions {
		part := storage.NewPartition(pm.ID)
		partDir := filepath.Join(dir, "partitions", fmt.Sprintf("%d", pm.ID))

		for _, cm := range pm.Columns {
			abs := filepath.Join(partDir, cm.File)
			rel := filepath.Join("partitions", fmt.Sprintf("%d", pm.ID), cm.File)
			if err := verifyManifestDigest(m, rel, abs); err != nil {
				return nil, err
			}
			col, err := readColumnFile(abs, cm.Kind)
			if err != nil {
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
			if err := part.AddColumn(cm.Name, col); err != nil {
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
		}

		for _, sm := range pm.Sequences {
			reference, ok := references[sm.Reference]
			if !ok {
				return nil, siloerr.New(siloerr.LoadDatabaseError,
					"snapshot: sequence column %q references unknown reference %q", sm.Name, sm.Reference)
			}
			seqAbs := filepath.Join(partDir, sm.SeqFile)
			vindexAbs := filepath.Join(partDir, sm.VindexFile)
			seqRel := filepath.Join("partitions", fmt.Sprintf("%d", pm.ID), sm.SeqFile)
			vindexRel := filepath.Join("partitions", fmt.Sprintf("%d", pm.ID), sm.VindexFile)
			if err := verifyManifestDigest(m, seqRel, seqAbs); err != nil {
				return nil, err
			}
			if err := verifyManifestDigest(m, vindexRel, vindexAbs); err != nil {
				return nil, err
			}
			seqFile, err := os.Open(seqAbs)
			if err != nil {
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
			vindexFile, err := os.Open(vindexAbs)
			if err != nil {
				seqFile.Close()
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
			seq, err := loadSequenceColumn(sm.Name, sm.Kind, reference, seqFile, vindexFile)
			seqFile.Close()
			vindexFile.Close()
			if err != nil {
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
			if err := part.AddSequenceColumn(sm.Name, seq); err != nil {
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
		}

		part.SetRowCount(pm.RowCount)
		if err := part.CheckConsistency(); err != nil {
			return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
		}

		if pm.LineageRows != "" {
			abs := filepath.Join(partDir, pm.LineageRows)
			rel := filepath.Join("partitions", fmt.Sprintf("%d", pm.ID), pm.LineageRows)
			if err := verifyManifestDigest(m, rel, abs); err != nil {
				return nil, err
			}
			leaves, err := readLineageRowsFile(abs)
			if err != nil {
				return nil, siloerr.Wrap(siloerr.LoadDatabaseError, err)
			}
			src.Lineage[pm.ID] = buildLineageIndex(tree, leaves)
		} else {
			src.Lineage[pm.ID] = lineage.NewIndex(tree)
		}

		src.Partitions = append(src.Partitions, part)
	}

	return src, nil
}

func verifyManifestDigest(m *Manifest, relPath, absPath string) error {
	want, ok := m.Digests[relPath]
	if !ok {
		return siloerr.New(siloerr.LoadDatabaseError, "snapshot: manifest has no digest recorded for %s", relPath)
	}
	return verifyDigest(absPath, want)
}

func readColumnFile(path, kind string) (storage.Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readColumn(f, kind)
}

func readReferenceFastaFile(path string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	return readReferenceFasta(f)
}

func readLineageRowsFile(path string) ([]lineage.Idx, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLineageRows(f)
}
