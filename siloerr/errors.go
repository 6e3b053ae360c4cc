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

// Package siloerr defines the typed error-kind taxonomy the query
// path, preprocessing pipeline, and snapshot loader use to map a
// failure to the right external signal (HTTP status, process exit, or
// panic) at the boundary that owns that decision, mirroring the
// typed exception hierarchy of the original C++ implementation
// (bad_request.h, query_compilation_exception.h,
// load_database_exception.h, preprocessing_exception.h) as plain Go
// errors checked with errors.As.
package siloerr

import (
	"errors"
	"fmt"
)

// Kind discriminates why a request or process failed.
type Kind int

const (
	// BadRequest covers malformed JSON, an unknown expression type, a
	// type mismatch, an unresolvable column or lineage reference, or a
	// bounds violation in a query request. Surfaced to the client as
	// HTTP 400.
	BadRequest Kind = iota
	// QueryCompilationError is an internal error: the filter
	// references a field the compiler does not support in context.
	// Surfaced as HTTP 500.
	QueryCompilationError
	// QueryTimeout is a deadline exceeded during evaluation. HTTP 504.
	QueryTimeout
	// QueryCancelled is a cooperative cancellation. HTTP 499.
	QueryCancelled
	// PreprocessingError covers malformed input files during the
	// one-shot preprocessing run (FASTA/SAM format errors, schema
	// mismatch, row-count overflow). Fails the run; no partial
	// database is published.
	PreprocessingError
	// LoadDatabaseError covers a snapshot that is unreadable or has an
	// incompatible version tag. Fails startup.
	LoadDatabaseError
	// Panic marks an invariant violation (a bitmap value outside
	// [0,N), a null in a non-nullable column, a reference mismatch).
	// Non-recoverable; DEBUG=1 re-panics instead of being recovered.
	Panic
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "BadRequest"
	case QueryCompilationError:
		return "QueryCompilationError"
	case QueryTimeout:
		return "QueryTimeout"
	case QueryCancelled:
		return "QueryCancelled"
	case PreprocessingError:
		return "PreprocessingError"
	case LoadDatabaseError:
		return "LoadDatabaseError"
	case Panic:
		return "Panic"
	default:
		return "Unknown"
	}
}

// HTTPStatus returns the status code the server's handler boundary
// maps this Kind to. Kinds not reached through an HTTP request
// (PreprocessingError, LoadDatabaseError, Panic) still return a
// status for completeness but are never surfaced to an HTTP client in
// practice.
func (k Kind) HTTPStatus() int {
	switch k {
	case BadRequest:
		return 400
	case QueryCompilationError:
		return 500
	case QueryTimeout:
		return 504
	case QueryCancelled:
		return 499
	default:
		return 500
	}
}

// Error pairs a Kind with the underlying error it wraps.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// New returns a Kind-tagged error formatted like fmt.Errorf.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error with kind, leaving it unwrappable to
// the original via errors.Unwrap.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the Kind tagged onto err, if any, by walking its
// error chain.
func KindOf(err error) (Kind, bool) {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind, true
	}
	return 0, false
}
