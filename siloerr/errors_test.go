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

package siloerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfRoundTrip(t *testing.T) {
	err := New(BadRequest, "unknown column %q", "foo")
	kind, ok := KindOf(err)
	if !ok || kind != BadRequest {
		t.Fatalf("got kind=%v ok=%v", kind, ok)
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(QueryCompilationError, "bad plan")
	wrapped := fmt.Errorf("evaluating partition 3: %w", base)
	kind, ok := KindOf(wrapped)
	if !ok || kind != QueryCompilationError {
		t.Fatalf("got kind=%v ok=%v", kind, ok)
	}
}

func TestKindOfUntaggedError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("expected an untagged error to report ok=false")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		BadRequest:            400,
		QueryCompilationError: 500,
		QueryTimeout:          504,
		QueryCancelled:        499,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Fatalf("%v: got %d, want %d", kind, got, want)
		}
	}
}
