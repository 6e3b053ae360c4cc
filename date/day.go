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

// Package date implements a compact calendar-day representation
// used by date-typed metadata columns.
//
// Unlike a general timestamp, a Day carries no time-of-day or
// timezone component: sequence metadata only ever carries
// collection/submission dates, never instants.
package date

import (
	"errors"
	"fmt"
	"time"
)

// Day is the number of days since 1969-12-31, so that
// the zero value represents NULL_DATE rather than a
// legitimate calendar date. Day 1 is 1970-01-01.
type Day uint32

// NullDay is the sentinel value representing an absent date.
const NullDay Day = 0

// epoch is the day immediately preceding day 1.
var epoch = time.Date(1969, time.December, 31, 0, 0, 0, 0, time.UTC)

// FromTime returns the Day containing t, normalized to UTC
// and truncated to midnight.
func FromTime(t time.Time) Day {
	t = t.UTC()
	days := int64(t.Sub(epoch).Hours() / 24)
	if days <= 0 {
		days = 1
	}
	return Day(uint32(days))
}

// Date constructs a Day from calendar components. Out-of-range
// month/day values are normalized the same way time.Date
// normalizes them.
func Date(year, month, day int) Day {
	return FromTime(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// Parse parses a "YYYY-MM-DD" string into a Day. An empty
// string parses to NullDay with no error, mirroring how
// missing metadata fields are treated elsewhere in the store.
func Parse(s string) (Day, error) {
	if s == "" {
		return NullDay, nil
	}
	if !isDateShape(s) {
		return NullDay, fmt.Errorf("date: %q is not a YYYY-MM-DD date", s)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return NullDay, fmt.Errorf("date: %q: %w", s, err)
	}
	return FromTime(t), nil
}

func isDateShape(s string) bool {
	if len(s) != len("2006-01-02") {
		return false
	}
	for i, c := range []byte(s) {
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// Time returns the time.Time (at UTC midnight) that d represents.
// Time panics if d is NullDay; callers must check IsNull first.
func (d Day) Time() time.Time {
	if d == NullDay {
		panic("date: Time called on NullDay")
	}
	return epoch.AddDate(0, 0, int(d))
}

// IsNull reports whether d is the NULL_DATE sentinel.
func (d Day) IsNull() bool { return d == NullDay }

// Year returns the calendar year of d, or 0 if d IsNull.
func (d Day) Year() int {
	if d.IsNull() {
		return 0
	}
	return d.Time().Year()
}

// Before reports whether d represents an earlier date than o.
// Both d and o must be non-null; use IsNull to check first.
func (d Day) Before(o Day) bool { return d < o }

// Between reports whether d falls within [lo, hi] inclusive.
// NullDay never matches a Between predicate, per the null policy
// that any comparison involving NULL yields false.
func (d Day) Between(lo, hi Day) bool {
	if d.IsNull() {
		return false
	}
	return d >= lo && d <= hi
}

// String renders d as "YYYY-MM-DD", or "" for NullDay.
func (d Day) String() string {
	if d.IsNull() {
		return ""
	}
	return d.Time().Format("2006-01-02")
}

// MarshalJSON implements json.Marshaler.
func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsNull() {
		return []byte("null"), nil
	}
	b := make([]byte, 0, 12)
	b = append(b, '"')
	b = append(b, d.String()...)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Day) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = NullDay
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return errors.New("date: UnmarshalJSON: expected a quoted string")
	}
	parsed, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
