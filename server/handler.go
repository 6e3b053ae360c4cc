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
	"encoding/json"
	"io"
	"net/http"

	"github.com/GenSpectrum/silo-go/action"
	"github.com/GenSpectrum/silo-go/exec"
	"github.com/GenSpectrum/silo-go/siloerr"
)

// errorJSON renders the {error, message} shape §13 specifies.
func errorJSON(kind, message string) []byte {
	data, err := json.Marshal(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{Error: kind, Message: message})
	if err != nil {
		// Marshaling two plain strings cannot fail.
		panic(err)
	}
	return data
}

// handleQuery implements POST /query: decode {action, filterExpression},
// compile and run across every partition, merge, and stream the
// result back per §6/§13.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, queryID string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<20))
	if err != nil {
		writeError(w, siloerr.Wrap(siloerr.BadRequest, err))
		return
	}

	expr, act, err := decodeQueryRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.DB.Run(r.Context(), s.Coordinator, expr, act)
	if err != nil {
		writeError(w, err)
		return
	}

	merged := mergeResults(act, results)
	if err := writeActionResponse(w, act, merged); err != nil {
		s.Logger.Printf("[%s] writing response: %v", queryID, err)
	}
}

func mergeResults(act action.Action, results []exec.PartitionResult) any {
	switch a := act.(type) {
	case action.Count:
		return exec.MergeCount(results)
	case action.Aggregate:
		return exec.MergeAggregate(results)
	case action.Details:
		return exec.MergeDetails(results, a.OrderBy)
	case action.Fasta:
		return exec.MergeFasta(results, a.OrderBy != "")
	default:
		return nil
	}
}

// infoResponse is GET /info's body: partition count, per-partition row
// counts, and the snapshot's build id (standing in for §13's "schema
// manifest version", since this server's manifest versioning is the
// BuildID a snapshot was preprocessed under).
type infoResponse struct {
	PartitionCount   int            `json:"partitionCount"`
	RowCounts        map[int]uint32 `json:"rowCounts"`
	BuildID          string         `json:"buildId"`
	PrimaryKeyColumn string         `json:"primaryKeyColumn,omitempty"`
	Columns          []string       `json:"columns,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request, queryID string) {
	rowCounts := make(map[int]uint32, len(s.DB.Partitions))
	for _, part := range s.DB.Partitions {
		rowCounts[part.ID()] = part.RowCount()
	}
	resp := infoResponse{
		PartitionCount: len(s.DB.Partitions),
		RowCounts:      rowCounts,
		BuildID:        s.BuildID,
	}
	if s.Schema != nil {
		resp.PrimaryKeyColumn = s.Schema.PrimaryKeyColumn
		for _, c := range s.Schema.Columns {
			resp.Columns = append(resp.Columns, c.Name)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Printf("[%s] writing /info response: %v", queryID, err)
	}
}
