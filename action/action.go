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

// Package action implements the per-partition action evaluator (C8):
// Count, Aggregate, Details and Fasta/FastaAligned each stream a
// matched row-id bitmap through a BatchedBitmapReader, materialize a
// record per row, and fold the result into a partial that the
// executor later merges across partitions.
package action

// Kind discriminates the action variants a query request can name.
type Kind int

const (
	KindCount Kind = iota
	KindAggregate
	KindDetails
	KindFasta
)

func (k Kind) String() string {
	switch k {
	case KindCount:
		return "Count"
	case KindAggregate:
		return "Aggregate"
	case KindDetails:
		return "Details"
	case KindFasta:
		return "Fasta"
	default:
		return "Unknown"
	}
}

// Action is an action request node. Concrete variants carry whatever
// configuration their Evaluate needs (group-by columns, projected
// columns, the sequence to materialize); Evaluate lives on the
// concrete type rather than on this interface since each variant
// returns a differently-shaped Result.
type Action interface {
	Kind() Kind
}
