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

package action

import (
	"fmt"

	"github.com/GenSpectrum/silo-go/storage"
)

// columnValue extracts row's value from col as a JSON-marshalable Go
// value, or nil for a null cell. Details and Aggregate both project
// typed columns down to this common representation.
func columnValue(col storage.Column, row uint32) (any, error) {
	if col.IsNull(row) {
		return nil, nil
	}
	switch c := col.(type) {
	case *storage.StringColumn:
		return c.GetValue(row), nil
	case *storage.IntColumn:
		return c.GetValue(row), nil
	case *storage.FloatColumn:
		return c.GetValue(row), nil
	case *storage.BoolColumn:
		v, ok := c.GetValue(row)
		if !ok {
			return nil, nil
		}
		return v, nil
	case *storage.DateColumn:
		return c.GetValue(row).String(), nil
	default:
		return nil, fmt.Errorf("action: column kind %v has no projectable value", col.Kind())
	}
}

// groupKey renders a row's values across by into a single comparable
// string key, joining with a separator that cannot occur in a
// rendered scalar (a control character) so distinct value tuples never
// collide.
func groupKey(part *storage.Partition, by []string, row uint32) (string, error) {
	if len(by) == 1 {
		col, ok := part.Column(by[0])
		if !ok {
			return "", fmt.Errorf("action: unknown group-by column %q", by[0])
		}
		v, err := columnValue(col, row)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v", v), nil
	}
	key := ""
	for i, name := range by {
		col, ok := part.Column(name)
		if !ok {
			return "", fmt.Errorf("action: unknown group-by column %q", name)
		}
		v, err := columnValue(col, row)
		if err != nil {
			return "", err
		}
		if i > 0 {
			key += "\x1f"
		}
		key += fmt.Sprintf("%v", v)
	}
	return key, nil
}
