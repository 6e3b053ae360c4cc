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
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GenSpectrum/silo-go/alphabet"
	"github.com/GenSpectrum/silo-go/exec"
	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/storage"
)

// testServer builds a 1-partition, 3-row database (ids a0/a1/a2,
// nucleotide segment "seg" = ACG/ATG/CCT over reference ACG) wired
// through a Server, the same fixture shape exec's own tests use.
func testServer(t *testing.T) *Server {
	t.Helper()
	tree := lineage.NewTree()
	seq, err := storage.NewSequenceColumn("seg", alphabet.Nucleotide, []byte("ACG"))
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range [][]byte{[]byte("ACG"), []byte("ATG"), []byte("CCT")} {
		if err := seq.InsertRow(row); err != nil {
			t.Fatal(err)
		}
	}
	seq.Finalize()

	dict := storage.NewDictionary()
	idCol := storage.NewStringColumn(dict)
	for _, id := range []string{"a0", "a1", "a2"} {
		idCol.Insert(id)
	}

	part := storage.NewPartition(0)
	if err := part.AddColumn("id", idCol); err != nil {
		t.Fatal(err)
	}
	if err := part.AddSequenceColumn("seg", seq); err != nil {
		t.Fatal(err)
	}
	part.SetRowCount(3)

	db := &exec.Database{
		Partitions:  []*storage.Partition{part},
		LineageTree: tree,
		Lineage:     map[int]*lineage.Index{0: lineage.NewIndex(tree)},
	}
	return &Server{
		Logger:      log.New(io.Discard, "", 0),
		DB:          db,
		Coordinator: exec.Coordinator{Parallel: 1},
		BuildID:     "test-build",
	}
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleQueryCount(t *testing.T) {
	s := testServer(t)
	body := `{"action":{"type":"Count"},"filterExpression":{"type":"NucleotideEquals","segment":"seg","position":1,"symbol":"C"}}`
	rec := postQuery(t, s.Handler(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Count uint64 `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 2 {
		t.Fatalf("got count %d, want 2 (rows 0 and 2 carry C at position 1)", got.Count)
	}
}

func TestHandleQueryDetailsNDJSON(t *testing.T) {
	s := testServer(t)
	body := `{"action":{"type":"Details","columns":["id"]},"filterExpression":{"type":"True"}}`
	rec := postQuery(t, s.Handler(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("got Content-Type %q, want application/x-ndjson", ct)
	}
	sc := bufio.NewScanner(rec.Body)
	n := 0
	for sc.Scan() {
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatal(err)
		}
		if _, ok := row["id"]; !ok {
			t.Fatalf("row missing id: %v", row)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("got %d NDJSON rows, want 3", n)
	}
}

func TestHandleQueryFasta(t *testing.T) {
	s := testServer(t)
	body := `{"action":{"type":"Fasta","segment":"seg","primaryKey":"id"},"filterExpression":{"type":"StringEquals","column":"id","value":"a1"}}`
	rec := postQuery(t, s.Handler(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/x-fasta" {
		t.Fatalf("got Content-Type %q, want text/x-fasta", ct)
	}
	want := ">a1\nATG\n"
	if rec.Body.String() != want {
		t.Fatalf("got %q, want %q", rec.Body.String(), want)
	}
}

func TestHandleQueryBadRequestStatus(t *testing.T) {
	s := testServer(t)
	rec := postQuery(t, s.Handler(), `{"action":{"type":"Count"},"filterExpression":{"type":"NoSuchType"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "BadRequest" {
		t.Fatalf("got error kind %q, want BadRequest", body.Error)
	}
}

func TestHandleQueryCompileErrorStatus(t *testing.T) {
	s := testServer(t)
	rec := postQuery(t, s.Handler(), `{"action":{"type":"Count"},"filterExpression":{"type":"StringEquals","column":"nope","value":"x"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400 (unknown column is a BadRequest per the compiler)", rec.Code)
	}
}

func TestHandleQueryRejectsWrongMethod(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got status %d, want 405", rec.Code)
	}
}

func TestHandleInfo(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		PartitionCount int            `json:"partitionCount"`
		RowCounts      map[string]int `json:"rowCounts"`
		BuildID        string         `json:"buildId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.PartitionCount != 1 {
		t.Fatalf("got partitionCount %d, want 1", got.PartitionCount)
	}
	if got.BuildID != "test-build" {
		t.Fatalf("got buildId %q, want test-build", got.BuildID)
	}
	if got.RowCounts["0"] != 3 {
		t.Fatalf("got rowCounts[0]=%d, want 3", got.RowCounts["0"])
	}
}
