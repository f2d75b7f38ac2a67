// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// ParsePageRange parses the page-range grammar (§4.6): comma-separated
// terms, each "int", "int-int", "-int" (from the end), or "N" (last).
// 1-based, inclusive, deduplicated, order preserved as written.
func ParsePageRange(expr string, total int) ([]int, error) {
	var out []int
	seen := make(map[int]bool)
	add := func(n int) {
		if n >= 1 && n <= total && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, rawTerm := range strings.Split(expr, ",") {
		term := strings.TrimSpace(rawTerm)
		if term == "" {
			continue
		}
		if term == "N" {
			add(total)
			continue
		}
		if idx := strings.Index(term[1:], "-"); idx >= 0 {
			// "int-int": split on the '-' that isn't a leading sign.
			lhs, rhs := term[:idx+1], term[idx+2:]
			lo, err := resolveTerm(lhs, total)
			if err != nil {
				return nil, err
			}
			hi, err := resolveTerm(rhs, total)
			if err != nil {
				return nil, err
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			for n := lo; n <= hi; n++ {
				add(n)
			}
			continue
		}
		n, err := resolveTerm(term, total)
		if err != nil {
			return nil, err
		}
		add(n)
	}
	return out, nil
}

func resolveTerm(term string, total int) (int, error) {
	if term == "N" {
		return total, nil
	}
	n, err := strconv.Atoi(term)
	if err != nil {
		return 0, errs.DSLValue("pages", term, "")
	}
	if n < 0 {
		return total + n + 1, nil
	}
	return n, nil
}

// pageRangeHandler selects pages/slides/sections of a Document in place
// (§4.6), dispatched on the Document variant.
var pageRangeHandler = &registry.HandlerRecord{
	Kind:     registry.KindModify,
	Name:     "pages",
	Dispatch: registry.Exact(attachment.ObjectKindDocument),
	Params: []registry.Param{
		{Name: "pages", Kind: registry.ParamString, Default: ""},
	},
	Modify: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		expr := params.String("pages")
		if expr == "" {
			return nil
		}
		doc := a.Obj.Document
		if doc == nil {
			return nil
		}
		indices, err := ParsePageRange(expr, len(doc.Units))
		if err != nil {
			return err
		}
		selected := make([]string, len(indices))
		for i, n := range indices {
			selected[i] = doc.Units[n-1]
		}
		a.Obj.Document = &attachment.Document{Units: selected}
		a.Metadata["pages_selected"] = indices
		return nil
	},
}

// rowLimitHandler limits a Table's rows in place.
var rowLimitHandler = &registry.HandlerRecord{
	Kind:     registry.KindModify,
	Name:     "rows",
	Dispatch: registry.Exact(attachment.ObjectKindTable),
	Params: []registry.Param{
		{Name: "limit", Kind: registry.ParamInt, Default: 0},
	},
	Modify: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		limit := params.Int("limit")
		if limit <= 0 || a.Obj.Table == nil {
			return nil
		}
		t := a.Obj.Table
		if limit < len(t.Rows) {
			a.Obj.Table = &attachment.Table{Header: t.Header, Rows: t.Rows[:limit]}
		}
		a.Metadata["csv_rows_kept"] = len(a.Obj.Table.Rows)
		return nil
	},
}
