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

// Package server exposes a loaded database over HTTP: POST /query
// compiles and runs a filter expression against every partition and
// streams back the merged action result, GET /info reports the
// database's shape. See SPEC_FULL.md §13.
package server

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/GenSpectrum/silo-go/config"
	"github.com/GenSpectrum/silo-go/exec"
	"github.com/GenSpectrum/silo-go/siloerr"
)

// Server wires a loaded database to the HTTP handlers.
type Server struct {
	Logger      *log.Logger
	DB          *exec.Database
	Coordinator exec.Coordinator
	Schema      *config.Schema
	BuildID     string

	srv http.Server
}

// Handler builds the routed, middleware-wrapped http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.wrap(s.handleQuery, http.MethodPost))
	mux.HandleFunc("/info", s.wrap(s.handleInfo, http.MethodGet))
	return mux
}

// ListenAndServe starts the HTTP server on addr, blocking until it
// stops or the process is signalled to shut down.
func (s *Server) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	s.srv.Handler = s.Handler()
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server, as cmd/silod's signal handler
// calls it.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// wrap logs the request under a per-request query id, restricts the
// method, and recovers a handler panic into a 500 — unless DEBUG=1 is
// set, matching the original's debug-build assertion behavior
// (silo_api/error.h): in debug mode an invariant violation should
// abort loudly rather than be swallowed into an opaque response.
func (s *Server) wrap(h func(w http.ResponseWriter, r *http.Request, queryID string), methods ...string) http.HandlerFunc {
	debug := os.Getenv("DEBUG") == "1"
	return func(w http.ResponseWriter, r *http.Request) {
		allowed := false
		for _, m := range methods {
			if r.Method == m {
				allowed = true
				break
			}
		}
		if !allowed {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		queryID := uuid.NewString()
		s.Logger.Printf("[%s] %s %s from %s", queryID, r.Method, r.URL.Path, r.RemoteAddr)

		defer func() {
			if rec := recover(); rec != nil {
				if debug {
					panic(rec)
				}
				s.Logger.Printf("[%s] panic: %v", queryID, rec)
				writeError(w, siloerr.New(siloerr.Panic, "internal error"))
			}
		}()

		h(w, r, queryID)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind, ok := siloerr.KindOf(err)
	status := http.StatusInternalServerError
	kindName := "InternalError"
	message := "internal error"
	if ok {
		status = kind.HTTPStatus()
		kindName = kind.String()
		if kind == siloerr.BadRequest {
			message = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeErrorBody(w, kindName, message)
}

// writeErrorBody renders the {error, message} shape the original's
// silo_api/error.h ErrorResponse uses.
func writeErrorBody(w http.ResponseWriter, kind, message string) {
	_, _ = w.Write(errorJSON(kind, message))
}
