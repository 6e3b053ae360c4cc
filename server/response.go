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

package server

import (
	"bufio"
	"encoding/json"
	"net/http"

	"github.com/GenSpectrum/silo-go/action"
)

// writeActionResponse renders a merged action result in the shape §6
// describes: a single JSON document for Count/Aggregate, NDJSON (one
// object per row) for Details, FASTA text for Fasta/FastaAligned.
func writeActionResponse(w http.ResponseWriter, act action.Action, merged any) error {
	switch act.Kind() {
	case action.KindCount:
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(merged.(action.CountResult))
	case action.KindAggregate:
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(merged.([]action.GroupCount))
	case action.KindDetails:
		w.Header().Set("Content-Type", "application/x-ndjson")
		return writeDetailsNDJSON(w, merged.([]action.Record))
	case action.KindFasta:
		w.Header().Set("Content-Type", "text/x-fasta")
		return writeFastaRecords(w, merged.([]action.FastaRecord))
	default:
		return nil
	}
}

func writeDetailsNDJSON(w http.ResponseWriter, records []action.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r.Values); err != nil {
			return err
		}
	}
	return nil
}

func writeFastaRecords(w http.ResponseWriter, records []action.FastaRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(">" + r.ID + "\n"); err != nil {
			return err
		}
		if _, err := bw.Write(r.Sequence); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
