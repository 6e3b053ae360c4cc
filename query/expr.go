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

// Package query holds the closed filter-expression algebra a request
// parses into, and the per-partition compiler that lowers an
// expression to a filter.Operator tree.
package query

import "github.com/GenSpectrum/silo-go/date"

// Expr is a node in the closed filter-expression algebra. It carries
// no compiled state of its own; Compile does all the work of
// resolving it against a specific partition.
type Expr interface {
	exprNode()
}

// True always matches every row.
type True struct{}

// False never matches any row.
type False struct{}

// And matches rows satisfying every child.
type And struct{ Children []Expr }

// Or matches rows satisfying at least one child.
type Or struct{ Children []Expr }

// Not matches rows that do not satisfy Child.
type Not struct{ Child Expr }

// DateBetween matches rows whose Column value is in [Lo, Hi].
type DateBetween struct {
	Column string
	Lo, Hi date.Day
}

// StringEquals matches rows whose Column value equals Value exactly.
type StringEquals struct {
	Column string
	Value  string
}

// IntBetween matches rows whose Column value is in [Lo, Hi].
type IntBetween struct {
	Column string
	Lo, Hi int64
}

// FloatBetween matches rows whose Column value is in [Lo, Hi].
type FloatBetween struct {
	Column string
	Lo, Hi float64
}

// BoolEquals matches rows whose Column value equals Value.
type BoolEquals struct {
	Column string
	Value  bool
}

// IsNull matches rows where Column holds the null sentinel.
type IsNull struct {
	Column string
}

// HasNucleotideMutation matches rows whose nucleotide sequence
// Segment has Symbol at Position, subject to the compiler's ambiguity
// mode.
type HasNucleotideMutation struct {
	Segment  string
	Position int
	Symbol   byte
}

// HasAminoAcidMutation matches rows whose amino-acid sequence for
// Gene has Symbol at Position, subject to the compiler's ambiguity
// mode.
type HasAminoAcidMutation struct {
	Gene     string
	Position int
	Symbol   byte
}

// LineageFilter matches rows whose lineage value is Value, or (if
// IncludeSublineages) Value or a descendant of it. The compiler answers
// it from the partition's one lineage index; Column is not consulted.
type LineageFilter struct {
	Column             string
	Value              string
	IncludeSublineages bool
}

// PangoLineage is sugar for LineageFilter against the database's
// reserved Pango lineage column.
type PangoLineage struct {
	Value              string
	IncludeSublineages bool
}

// PangoLineageColumn is the reserved column name PangoLineage targets.
const PangoLineageColumn = "pangoLineage"

// NOf matches rows satisfying at least K (or, if Exact, exactly K) of
// Children.
type NOf struct {
	K        int
	Exact    bool
	Children []Expr
}

// Maybe compiles Child in ambiguity-permissive (upper-bound) mode,
// regardless of the mode the enclosing expression was compiled in.
type Maybe struct{ Child Expr }

func (True) exprNode()                  {}
func (False) exprNode()                 {}
func (And) exprNode()                   {}
func (Or) exprNode()                    {}
func (Not) exprNode()                   {}
func (DateBetween) exprNode()           {}
func (StringEquals) exprNode()          {}
func (IntBetween) exprNode()            {}
func (FloatBetween) exprNode()          {}
func (BoolEquals) exprNode()            {}
func (IsNull) exprNode()                {}
func (HasNucleotideMutation) exprNode() {}
func (HasAminoAcidMutation) exprNode()  {}
func (LineageFilter) exprNode()         {}
func (PangoLineage) exprNode()          {}
func (NOf) exprNode()                   {}
func (Maybe) exprNode()                 {}
