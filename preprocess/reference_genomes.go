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
	"encoding/json"
	"fmt"
	"os"

	"github.com/GenSpectrum/silo-go/siloerr"
)

// referenceGenomes is reference-genomes.json's shape: the aligned
// reference for each declared nucleotide segment and amino-acid
// gene.
type referenceGenomes struct {
	NucleotideSequences map[string]string `json:"nucleotide_sequences"`
	AaSequences         map[string]string `json:"aa_sequences"`
}

func loadReferenceGenomes(path string) (*referenceGenomes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, siloerr.Wrap(siloerr.PreprocessingError, err)
	}
	var rg referenceGenomes
	if err := json.Unmarshal(data, &rg); err != nil {
		return nil, siloerr.New(siloerr.PreprocessingError, "reference genomes %s: %w", path, err)
	}
	return &rg, nil
}

func (rg *referenceGenomes) lookup(kind, name string) ([]byte, error) {
	var table map[string]string
	switch kind {
	case "nucleotide":
		table = rg.NucleotideSequences
	case "aminoAcid":
		table = rg.AaSequences
	default:
		return nil, fmt.Errorf("unknown sequence kind %q", kind)
	}
	seq, ok := table[name]
	if !ok {
		return nil, fmt.Errorf("reference genomes: no entry for %s %q", kind, name)
	}
	return []byte(seq), nil
}
