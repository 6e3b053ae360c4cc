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

package date

import "testing"

func TestParseRoundTrip(t *testing.T) {
	in := []string{
		"2021-06-01",
		"2021-07-01",
		"2021-08-01",
		"1970-01-01",
		"2000-02-29",
	}
	for _, s := range in {
		d, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if d.IsNull() {
			t.Fatalf("Parse(%q) produced NullDay", s)
		}
		if got := d.String(); got != s {
			t.Errorf("Parse(%q).String() = %q", s, got)
		}
	}
}

func TestParseEmptyIsNull(t *testing.T) {
	d, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsNull() {
		t.Fatal("expected NullDay for empty string")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"2021/06/01", "not-a-date", "2021-13-40"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestOrdering(t *testing.T) {
	a, _ := Parse("2021-06-01")
	b, _ := Parse("2021-09-01")
	if !a.Before(b) {
		t.Fatal("expected a before b")
	}
	if !b.Between(a, b) {
		t.Fatal("expected b in [a,b]")
	}
	if a.Between(b, b) {
		t.Fatal("a should not be in [b,b]")
	}
}

func TestNullNeverBetween(t *testing.T) {
	lo, _ := Parse("2021-01-01")
	hi, _ := Parse("2021-12-31")
	if NullDay.Between(lo, hi) {
		t.Fatal("NullDay must never satisfy Between")
	}
}
