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
	"encoding/json"
	"fmt"

	"github.com/GenSpectrum/silo-go/action"
	"github.com/GenSpectrum/silo-go/date"
	"github.com/GenSpectrum/silo-go/query"
	"github.com/GenSpectrum/silo-go/siloerr"
)

// queryRequest is the wire shape of a POST /query body: an action and
// a filter expression, each discriminated by a "type" tag (§6).
type queryRequest struct {
	Action           json.RawMessage `json:"action"`
	FilterExpression json.RawMessage `json:"filterExpression"`
}

// typeTag pulls out a node's "type" discriminator without decoding
// the rest of its fields.
type typeTag struct {
	Type string `json:"type"`
}

func decodeQueryRequest(data []byte) (query.Expr, action.Action, error) {
	var req queryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, nil, siloerr.Wrap(siloerr.BadRequest, err)
	}
	expr, err := decodeExpr(req.FilterExpression)
	if err != nil {
		return nil, nil, err
	}
	act, err := decodeAction(req.Action)
	if err != nil {
		return nil, nil, err
	}
	return expr, act, nil
}

// decodeExpr recursively decodes a filter-expression node, dispatching
// on its "type" tag. The tag names match the closed algebra's Go type
// names (query.And, query.StringEquals, ...) except for the two
// mutation predicates, which the wire format spells NucleotideEquals/
// AminoAcidEquals rather than query.HasNucleotideMutation/
// HasAminoAcidMutation.
func decodeExpr(raw json.RawMessage) (query.Expr, error) {
	if len(raw) == 0 {
		return query.True{}, nil
	}
	var tag typeTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, siloerr.Wrap(siloerr.BadRequest, err)
	}

	switch tag.Type {
	case "True":
		return query.True{}, nil
	case "False":
		return query.False{}, nil
	case "And":
		var v struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		children, err := decodeExprs(v.Children)
		if err != nil {
			return nil, err
		}
		return query.And{Children: children}, nil
	case "Or":
		var v struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		children, err := decodeExprs(v.Children)
		if err != nil {
			return nil, err
		}
		return query.Or{Children: children}, nil
	case "Not":
		var v struct {
			Child json.RawMessage `json:"child"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		child, err := decodeExpr(v.Child)
		if err != nil {
			return nil, err
		}
		return query.Not{Child: child}, nil
	case "DateBetween":
		var w struct {
			Column string `json:"column"`
			Lo     string `json:"lo"`
			Hi     string `json:"hi"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		lo, err := date.Parse(w.Lo)
		if err != nil {
			return nil, siloerr.New(siloerr.BadRequest, "DateBetween.lo: %w", err)
		}
		hi, err := date.Parse(w.Hi)
		if err != nil {
			return nil, siloerr.New(siloerr.BadRequest, "DateBetween.hi: %w", err)
		}
		return query.DateBetween{Column: w.Column, Lo: lo, Hi: hi}, nil
	case "StringEquals":
		var v struct {
			Column string `json:"column"`
			Value  string `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.StringEquals{Column: v.Column, Value: v.Value}, nil
	case "IntBetween":
		var w struct {
			Column string `json:"column"`
			Lo     int64  `json:"lo"`
			Hi     int64  `json:"hi"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.IntBetween{Column: w.Column, Lo: w.Lo, Hi: w.Hi}, nil
	case "FloatBetween":
		var w struct {
			Column string  `json:"column"`
			Lo     float64 `json:"lo"`
			Hi     float64 `json:"hi"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.FloatBetween{Column: w.Column, Lo: w.Lo, Hi: w.Hi}, nil
	case "BoolEquals":
		var v struct {
			Column string `json:"column"`
			Value  bool   `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.BoolEquals{Column: v.Column, Value: v.Value}, nil
	case "IsNull":
		var v struct {
			Column string `json:"column"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.IsNull{Column: v.Column}, nil
	case "NucleotideEquals":
		var v struct {
			Segment  string `json:"segment"`
			Position int    `json:"position"`
			Symbol   string `json:"symbol"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		symbol, err := singleByte(v.Symbol)
		if err != nil {
			return nil, siloerr.New(siloerr.BadRequest, "NucleotideEquals.symbol: %w", err)
		}
		return query.HasNucleotideMutation{Segment: v.Segment, Position: v.Position, Symbol: symbol}, nil
	case "AminoAcidEquals":
		var v struct {
			Gene     string `json:"gene"`
			Position int    `json:"position"`
			Symbol   string `json:"symbol"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		symbol, err := singleByte(v.Symbol)
		if err != nil {
			return nil, siloerr.New(siloerr.BadRequest, "AminoAcidEquals.symbol: %w", err)
		}
		return query.HasAminoAcidMutation{Gene: v.Gene, Position: v.Position, Symbol: symbol}, nil
	case "LineageFilter":
		var v struct {
			Column             string `json:"column"`
			Value              string `json:"value"`
			IncludeSublineages bool   `json:"includeSublineages"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.LineageFilter{Column: v.Column, Value: v.Value, IncludeSublineages: v.IncludeSublineages}, nil
	case "PangoLineage":
		var v struct {
			Value              string `json:"value"`
			IncludeSublineages bool   `json:"includeSublineages"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		return query.PangoLineage{Value: v.Value, IncludeSublineages: v.IncludeSublineages}, nil
	case "NOf":
		var v struct {
			K        int               `json:"k"`
			Exact    bool              `json:"exact"`
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		children, err := decodeExprs(v.Children)
		if err != nil {
			return nil, err
		}
		return query.NOf{K: v.K, Exact: v.Exact, Children: children}, nil
	case "Maybe":
		var v struct {
			Child json.RawMessage `json:"child"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badExprJSON(tag.Type, err)
		}
		child, err := decodeExpr(v.Child)
		if err != nil {
			return nil, err
		}
		return query.Maybe{Child: child}, nil
	default:
		return nil, siloerr.New(siloerr.BadRequest, "filterExpression: unknown type %q", tag.Type)
	}
}

func decodeExprs(raw []json.RawMessage) ([]query.Expr, error) {
	out := make([]query.Expr, len(raw))
	for i, r := range raw {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func badExprJSON(typ string, err error) error {
	return siloerr.New(siloerr.BadRequest, "filterExpression %s: %w", typ, err)
}

func singleByte(s string) (byte, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("symbol must be exactly one character, got %q", s)
	}
	return s[0], nil
}

// decodeAction decodes the action object, dispatching on its "type"
// tag: Count, Aggregate, Details, Fasta, FastaAligned.
func decodeAction(raw json.RawMessage) (action.Action, error) {
	if len(raw) == 0 {
		return nil, siloerr.New(siloerr.BadRequest, "request: missing action")
	}
	var tag typeTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, siloerr.Wrap(siloerr.BadRequest, err)
	}

	switch tag.Type {
	case "Count":
		return action.Count{}, nil
	case "Aggregate":
		var v struct {
			By        []string `json:"by"`
			BatchSize int      `json:"batchSize"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badActionJSON(tag.Type, err)
		}
		return action.Aggregate{By: v.By, BatchSize: v.BatchSize}, nil
	case "Details":
		var v struct {
			Columns   []string `json:"columns"`
			OrderBy   string   `json:"orderBy"`
			BatchSize int      `json:"batchSize"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badActionJSON(tag.Type, err)
		}
		return action.Details{Columns: v.Columns, OrderBy: v.OrderBy, BatchSize: v.BatchSize}, nil
	case "Fasta", "FastaAligned":
		var v struct {
			Segment    string `json:"segment"`
			Gene       string `json:"gene"`
			PrimaryKey string `json:"primaryKey"`
			OrderBy    string `json:"orderBy"`
			BatchSize  int    `json:"batchSize"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, badActionJSON(tag.Type, err)
		}
		return action.Fasta{
			Segment:    v.Segment,
			Gene:       v.Gene,
			PrimaryKey: v.PrimaryKey,
			Aligned:    tag.Type == "FastaAligned",
			OrderBy:    v.OrderBy,
			BatchSize:  v.BatchSize,
		}, nil
	default:
		return nil, siloerr.New(siloerr.BadRequest, "action: unknown type %q", tag.Type)
	}
}

func badActionJSON(typ string, err error) error {
	return siloerr.New(siloerr.BadRequest, "action %s: %w", typ, err)
}
