// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"strings"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// splitRowsHandler chunks a Table's rows into groups of "size" (§4.7:
// "Data splitters: rows (chunk size from DSL), columns").
var splitRowsHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "rows",
	Dispatch: registry.Exact(attachment.ObjectKindTable),
	Params: []registry.Param{
		{Name: "size", Kind: registry.ParamInt, Default: 100},
	},
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		size := params.Int("size")
		if size <= 0 {
			return nil, errs.DSLValue("size", "", "")
		}
		t := a.Obj.Table
		if t == nil {
			return attachment.NewCollection(a, "rows", nil), nil
		}

		var items []*attachment.Attachment
		for i := 0; i < len(t.Rows); i += size {
			end := i + size
			if end > len(t.Rows) {
				end = len(t.Rows)
			}
			chunk := attachment.New(a.Input, a.Path, attachment.NewCommands())
			sub := &attachment.Table{Header: t.Header, Rows: t.Rows[i:end]}
			chunk.Obj = attachment.Object{Kind: attachment.ObjectKindTable, Table: sub}
			items = append(items, chunk)
		}
		return attachment.NewCollection(a, "rows", items), nil
	},
}

// splitColumnsHandler derives one chunk per column, each carrying the
// header cell and every row's value for that column.
var splitColumnsHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "columns",
	Dispatch: registry.Exact(attachment.ObjectKindTable),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		t := a.Obj.Table
		if t == nil {
			return attachment.NewCollection(a, "columns", nil), nil
		}
		var items []*attachment.Attachment
		for col := range t.Header {
			values := make([]string, 0, len(t.Rows))
			for _, row := range t.Rows {
				if col < len(row) {
					values = append(values, row[col])
				}
			}
			chunk := attachment.New(a.Input, a.Path, attachment.NewCommands())
			chunk.Obj = attachment.Object{Kind: attachment.ObjectKindTable, Table: &attachment.Table{
				Header: []string{t.Header[col]},
				Rows:   rowsOfOne(values),
			}}
			items = append(items, chunk)
		}
		return attachment.NewCollection(a, "columns", items), nil
	},
}

func rowsOfOne(values []string) [][]string {
	out := make([][]string, len(values))
	for i, v := range values {
		out[i] = []string{v}
	}
	return out
}

func renderTable(t *attachment.Table) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(t.Header, ","))
	for _, row := range t.Rows {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(row, ","))
	}
	return sb.String()
}
