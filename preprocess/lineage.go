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
	"os"

	"sigs.k8s.io/yaml"

	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/siloerr"
)

// lineageDefinitionsDoc is the build-time lineage tree input: the
// child->parent relation, given as an input independent from each
// row's own lineage value, in the same
// {name, parentName} shape snapshot/lineage.go persists a tree in,
// so a hand-written definitions file and a previously saved
// lineage/tree.yaml are interchangeable inputs to preprocessing.
type lineageDefinitionsDoc struct {
	Entries []lineage.Entry `json:"entries"`
}

// loadLineageTree parses a lineage definitions file into a Tree,
// replaying entries in file order; a child listed before its parent
// is a PreprocessingError, same as any other malformed input.
func loadLineageTree(path string) (*lineage.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
	}
	var doc lineageDefinitionsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, siloerr.New(siloerr.PreprocessingError, "lineage definitions %s: %w", path, err)
	}
	tree := lineage.NewTree()
	for _, e := range doc.Entries {
		if _, err := tree.Add(e.Name, e.ParentName); err != nil {
			return nil, siloerr.New(siloerr.PreprocessingError, "lineage definitions %s: %w", path, err)
		}
	}
	return tree, nil
}

// buildLineageIndex resolves a batch's per-row lineage values
// against tree and inserts every resolved row: for each row r with
// leaf lineage l, r is added to the bitmap of l and of every
// ancestor. Rows with an empty value or a value the
// tree does not resolve are left unassigned rather than failing the
// whole run — an unresolvable lineage value narrows query results,
// it does not invalidate the dataset.
func buildLineageIndex(tree *lineage.Tree, values []string) *lineage.Index {
	idx := lineage.NewIndex(tree)
	for row, v := range values {
		if v == "" {
			continue
		}
		leaf, ok := tree.Resolve(v)
		if !ok {
			continue
		}
		idx.Insert(uint32(row), leaf)
	}
	return idx
}
