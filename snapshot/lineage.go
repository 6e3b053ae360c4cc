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
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/GenSpectrum/silo-go/lineage"
)

type lineageDoc struct {
	Entries []lineage.Entry `json:"entries"`
}

func writeLineageTree(path string, tree *lineage.Tree) error {
	doc := lineageDoc{Entries: tree.Entries()}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot: encoding lineage tree: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readLineageTree(path string) (*lineage.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading lineage tree: %w", err)
	}
	var doc lineageDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: decoding lineage tree: %w", err)
	}
	tree := lineage.NewTree()
	for _, e := range doc.Entries {
		if _, err := tree.Add(e.Name, e.ParentName); err != nil {
			return nil, fmt.Errorf("snapshot: rebuilding lineage tree: %w", err)
		}
	}
	return tree, nil
}

// writeLineageRows writes one partition's per-row leaf assignment, -1
// for a row with no recorded lineage.
func writeLineageRows(w io.Writer, leaves []lineage.Idx) error {
	if err := writeUint32(w, uint32(len(leaves))); err != nil {
		return err
	}
	for _, l := range leaves {
		if err := writeUint64(w, uint64(int64(l))); err != nil {
			return err
		}
	}
	return nil
}

func readLineageRows(r io.Reader) ([]lineage.Idx, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]lineage.Idx, n)
	for i := range out {
		raw, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		out[i] = lineage.Idx(int64(raw))
	}
	return out, nil
}

// buildLineageIndex replays a per-row leaf assignment back into an
// Index by calling Insert for every row with a recorded lineage.
func buildLineageIndex(tree *lineage.Tree, leaves []lineage.Idx) *lineage.Index {
	idx := lineage.NewIndex(tree)
	for row, leaf := range leaves {
		if leaf < 0 {
			continue
		}
		idx.Insert(uint32(row), leaf)
	}
	return idx
}
