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

package query

import (
	"github.com/GenSpectrum/silo-go/bitmap"
	"github.com/GenSpectrum/silo-go/filter"
	"github.com/GenSpectrum/silo-go/lineage"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/storage"
)

// AmbiguityMode controls how a mutation predicate's (possibly
// ambiguous) query symbol is matched against a sequence column's
// stored, always-concrete per-row symbol.
type AmbiguityMode int

const (
	// ModeNone is a strict literal match: the query symbol must equal
	// the exact symbol stored at that position, with no ambiguity-code
	// expansion. This is the default mode outside a Maybe subtree.
	ModeNone AmbiguityMode = iota
	// ModeUpperBound expands an ambiguity code to the union of bases it
	// covers and matches if the stored symbol is any of them ("this row
	// could possibly carry the queried mutation"). Maybe(child) compiles
	// child in this mode.
	ModeUpperBound
	// ModeLowerBound is UpperBound's negation: matching "definitely
	// carries the queried mutation" against a column that only ever
	// stores one concrete symbol per row means a multi-base query
	// symbol can never be guaranteed, so it compiles to EMPTY; a
	// concrete (single-base) query symbol behaves like ModeNone.
	ModeLowerBound
)

// Flip swaps Upper and Lower, leaving None unchanged. Maybe(Not(x))
// compiles x as a lower-bound match this way.
func (m AmbiguityMode) Flip() AmbiguityMode {
	switch m {
	case ModeUpperBound:
		return ModeLowerBound
	case ModeLowerBound:
		return ModeUpperBound
	default:
		return ModeNone
	}
}

// Context supplies everything a partition-local compile needs beyond
// the expression tree itself: the partition's columns and sequence
// columns, and (if the schema declares a lineage column) the lineage
// tree and its precomputed index.
type Context struct {
	Partition   *storage.Partition
	LineageTree *lineage.Tree
	Lineage     *lineage.Index
}

// Compile lowers expr into an operator tree evaluated against ctx's
// partition, in the given starting ambiguity mode (callers compiling
// a top-level request expression pass ModeNone).
func Compile(ctx *Context, expr Expr, mode AmbiguityMode) (filter.Operator, error) {
	return compile(ctx, expr, mode)
}

func (ctx *Context) rowCount() uint32 { return ctx.Partition.RowCount() }

func indexScanFrom(cow bitmap.COW) filter.Operator {
	return filter.IndexScan{Bitmap: cow.Raw()}
}

func compile(ctx *Context, e Expr, mode AmbiguityMode) (filter.Operator, error) {
	switch v := e.(type) {
	case True:
		return filter.Full{RowCount: ctx.rowCount()}, nil
	case False:
		return filter.Empty{}, nil
	case And:
		return compileAnd(ctx, flattenAnd(v.Children), mode)
	case Or:
		return compileOr(ctx, flattenOr(v.Children), mode)
	case Not:
		return compileNot(ctx, v.Child, mode)
	case DateBetween:
		return compileDateBetween(ctx, v)
	case StringEquals:
		return compileStringEquals(ctx, v)
	case IntBetween:
		return compileIntBetween(ctx, v)
	case FloatBetween:
		return compileFloatBetween(ctx, v)
	case BoolEquals:
		return compileBoolEquals(ctx, v)
	case IsNull:
		return compileIsNull(ctx, v)
	case HasNucleotideMutation:
		return compileNucleotideMutation(ctx, v, mode)
	case HasAminoAcidMutation:
		return compileAminoAcidMutation(ctx, v, mode)
	case LineageFilter:
		return compileLineageFilter(ctx, v)
	case PangoLineage:
		return compile(ctx, LineageFilter{
			Column:             PangoLineageColumn,
			Value:              v.Value,
			IncludeSublineages: v.IncludeSublineages,
		}, mode)
	case NOf:
		return compileNOf(ctx, v, mode)
	case Maybe:
		return compile(ctx, v.Child, ModeUpperBound)
	default:
		return nil, siloerr.New(siloerr.QueryCompilationError, "query: unsupported expression %T", e)
	}
}

func flattenAnd(exprs []Expr) []Expr {
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if and, ok := e.(And); ok {
			out = append(out, flattenAnd(and.Children)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

func flattenOr(exprs []Expr) []Expr {
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if or, ok := e.(Or); ok {
			out = append(out, flattenOr(or.Children)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

// compileAnd partitions the flattened child list into positives and
// (via structural Not-detection) negatives, short-circuits on a
// literal False, and strips literal True identities.
func compileAnd(ctx *Context, children []Expr, mode AmbiguityMode) (filter.Operator, error) {
	var pos, neg []filter.Operator
	for _, c := range children {
		switch v := c.(type) {
		case False:
			return filter.Empty{}, nil
		case True:
			continue
		case Not:
			op, err := compile(ctx, v.Child, mode.Flip())
			if err != nil {
				return nil, err
			}
			neg = append(neg, op)
		default:
			op, err := compile(ctx, c, mode)
			if err != nil {
				return nil, err
			}
			pos = append(pos, op)
		}
	}
	if len(pos) == 0 && len(neg) == 0 {
		return filter.Full{RowCount: ctx.rowCount()}, nil
	}
	return filter.Intersection{Pos: pos, Neg: neg, RowCount: ctx.rowCount()}, nil
}

// compileOr short-circuits on a literal True and strips literal False
// identities.
func compileOr(ctx *Context, children []Expr, mode AmbiguityMode) (filter.Operator, error) {
	var ops []filter.Operator
	for _, c := range children {
		switch c.(type) {
		case True:
			return filter.Full{RowCount: ctx.rowCount()}, nil
		case False:
			continue
		}
		op, err := compile(ctx, c, mode)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return filter.Empty{}, nil
	}
	return filter.Union{Children: ops}, nil
}

// compileNot is reached only when a Not is not directly absorbed into
// an enclosing And's negative-child list; it pushes through the
// generic structural rewrite instead of wrapping in a COMPLEMENT node
// whenever negate() has a cheaper equivalent.
func compileNot(ctx *Context, child Expr, mode AmbiguityMode) (filter.Operator, error) {
	op, err := compile(ctx, child, mode.Flip())
	if err != nil {
		return nil, err
	}
	return filter.Negate(op, ctx.rowCount()), nil
}

func compileNOf(ctx *Context, v NOf, mode AmbiguityMode) (filter.Operator, error) {
	if v.K <= 0 {
		return filter.Full{RowCount: ctx.rowCount()}, nil
	}
	if v.K > len(v.Children) {
		return filter.Empty{}, nil
	}
	ops := make([]filter.Operator, 0, len(v.Children))
	for _, c := range v.Children {
		op, err := compile(ctx, c, mode)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return filter.Threshold{Children: ops, K: v.K, Exact: v.Exact}, nil
}

func column(ctx *Context, name string) (storage.Column, error) {
	col, ok := ctx.Partition.Column(name)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: unknown column %q", name)
	}
	return col, nil
}

func compileDateBetween(ctx *Context, v DateBetween) (filter.Operator, error) {
	col, err := column(ctx, v.Column)
	if err != nil {
		return nil, err
	}
	dc, ok := col.(*storage.DateColumn)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: column %q is not a date column", v.Column)
	}
	return indexScanFrom(dc.Between(v.Lo, v.Hi)), nil
}

func compileStringEquals(ctx *Context, v StringEquals) (filter.Operator, error) {
	col, err := column(ctx, v.Column)
	if err != nil {
		return nil, err
	}
	sc, ok := col.(*storage.StringColumn)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: column %q is not a string column", v.Column)
	}
	id, ok := sc.Dictionary().Lookup(v.Value)
	if !ok {
		// an unresolvable dictionary value can match no row; this is
		// not a compile error, mirroring an unresolvable lineage value.
		return filter.Empty{}, nil
	}
	return indexScanFrom(sc.Equals(id)), nil
}

func compileIntBetween(ctx *Context, v IntBetween) (filter.Operator, error) {
	col, err := column(ctx, v.Column)
	if err != nil {
		return nil, err
	}
	ic, ok := col.(*storage.IntColumn)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: column %q is not an int column", v.Column)
	}
	return indexScanFrom(ic.Between(v.Lo, v.Hi)), nil
}

func compileFloatBetween(ctx *Context, v FloatBetween) (filter.Operator, error) {
	col, err := column(ctx, v.Column)
	if err != nil {
		return nil, err
	}
	fc, ok := col.(*storage.FloatColumn)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: column %q is not a float column", v.Column)
	}
	return indexScanFrom(fc.Between(v.Lo, v.Hi)), nil
}

func compileBoolEquals(ctx *Context, v BoolEquals) (filter.Operator, error) {
	col, err := column(ctx, v.Column)
	if err != nil {
		return nil, err
	}
	bc, ok := col.(*storage.BoolColumn)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: column %q is not a bool column", v.Column)
	}
	return indexScanFrom(bc.Equals(v.Value)), nil
}

func compileIsNull(ctx *Context, v IsNull) (filter.Operator, error) {
	col, err := column(ctx, v.Column)
	if err != nil {
		return nil, err
	}
	return indexScanFrom(col.IsNullBitmap()), nil
}

func compileNucleotideMutation(ctx *Context, v HasNucleotideMutation, mode AmbiguityMode) (filter.Operator, error) {
	seq, ok := ctx.Partition.SequenceColumn(v.Segment)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: unknown nucleotide segment %q", v.Segment)
	}
	return compileMutation(seq, v.Position, v.Symbol, mode)
}

func compileAminoAcidMutation(ctx *Context, v HasAminoAcidMutation, mode AmbiguityMode) (filter.Operator, error) {
	seq, ok := ctx.Partition.SequenceColumn(v.Gene)
	if !ok {
		return nil, siloerr.New(siloerr.BadRequest, "query: unknown gene %q", v.Gene)
	}
	return compileMutation(seq, v.Position, v.Symbol, mode)
}

func compileMutation(seq *storage.SequenceColumn, pos int, symbol byte, mode AmbiguityMode) (filter.Operator, error) {
	alpha := seq.Alphabet()

	if mode == ModeNone {
		concrete, ok := alpha.Lookup(symbol)
		if !ok {
			return filter.Empty{}, nil
		}
		cow, err := seq.SymbolAt(pos, concrete)
		if err != nil {
			return nil, siloerr.Wrap(siloerr.QueryCompilationError, err)
		}
		return indexScanFrom(cow), nil
	}

	symbols, ok := alpha.Expand(symbol)
	if !ok {
		return filter.Empty{}, nil
	}
	if len(symbols) == 1 {
		cow, err := seq.SymbolAt(pos, symbols[0])
		if err != nil {
			return nil, siloerr.Wrap(siloerr.QueryCompilationError, err)
		}
		return indexScanFrom(cow), nil
	}

	if mode == ModeLowerBound {
		// No single concrete stored symbol can simultaneously equal
		// every base a genuinely ambiguous query symbol covers, so a
		// guaranteed (lower-bound) match of a multi-base symbol is
		// unsatisfiable.
		return filter.Empty{}, nil
	}

	ops := make([]filter.Operator, len(symbols))
	for i, s := range symbols {
		cow, err := seq.SymbolAt(pos, s)
		if err != nil {
			return nil, siloerr.Wrap(siloerr.QueryCompilationError, err)
		}
		ops[i] = indexScanFrom(cow)
	}
	return filter.Union{Children: ops}, nil
}

func compileLineageFilter(ctx *Context, v LineageFilter) (filter.Operator, error) {
	if ctx.LineageTree == nil || ctx.Lineage == nil {
		return nil, siloerr.New(siloerr.BadRequest, "query: no lineage column configured")
	}
	id, ok := ctx.LineageTree.Resolve(v.Value)
	if !ok {
		return filter.Empty{}, nil
	}
	if v.IncludeSublineages {
		cow, ok := ctx.Lineage.FilterIncludingSublineages(id)
		if !ok {
			return filter.Empty{}, nil
		}
		return indexScanFrom(cow), nil
	}
	return indexScanFrom(ctx.Lineage.FilterExactly(id)), nil
}
