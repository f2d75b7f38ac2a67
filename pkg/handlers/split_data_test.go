// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"testing"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func tableAttachment(header []string, rows [][]string) *attachment.Attachment {
	a := attachment.New("data.csv", "data.csv", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindTable, Table: &attachment.Table{Header: header, Rows: rows}}
	return a
}

func TestSplitRowsHandlerChunksBySize(t *testing.T) {
	a := tableAttachment([]string{"a"}, [][]string{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}})
	params := bindDefaults(t, splitRowsHandler.Params, map[string]string{"size": "2"})
	coll, err := splitRowsHandler.Split(ctxBg(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 chunks of size 2 (2,2,1)", coll.Len())
	}
	lastRows := coll.Items[2].Obj.Table.Rows
	if len(lastRows) != 1 {
		t.Errorf("last chunk Rows = %v, want 1 row", lastRows)
	}
}

func TestSplitRowsHandlerRejectsNonPositiveSize(t *testing.T) {
	a := tableAttachment([]string{"a"}, [][]string{{"1"}})
	params := bindDefaults(t, splitRowsHandler.Params, map[string]string{"size": "0"})
	if _, err := splitRowsHandler.Split(ctxBg(), a, params); err == nil {
		t.Error("Split() should reject size<=0")
	}
}

func TestSplitRowsHandlerNilTable(t *testing.T) {
	a := attachment.New("data.csv", "data.csv", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindTable}
	params := bindDefaults(t, splitRowsHandler.Params, nil)
	coll, err := splitRowsHandler.Split(ctxBg(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for a nil Table", coll.Len())
	}
}

func TestSplitColumnsHandlerOneChunkPerColumn(t *testing.T) {
	a := tableAttachment([]string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}})
	coll, err := splitColumnsHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (one chunk per column)", coll.Len())
	}
	if coll.Items[0].Obj.Table.Header[0] != "a" || coll.Items[1].Obj.Table.Header[0] != "b" {
		t.Errorf("unexpected column headers: %q, %q", coll.Items[0].Obj.Table.Header[0], coll.Items[1].Obj.Table.Header[0])
	}
	if got := renderTable(coll.Items[0].Obj.Table); got != "a\n1\n2" {
		t.Errorf("renderTable(Items[0].Obj.Table) = %q, want %q", got, "a\n1\n2")
	}
}

func TestSplitColumnsHandlerNilTable(t *testing.T) {
	a := attachment.New("data.csv", "data.csv", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindTable}
	coll, err := splitColumnsHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for a nil Table", coll.Len())
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable(&attachment.Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}})
	want := "a,b\n1,2"
	if got != want {
		t.Errorf("renderTable() = %q, want %q", got, want)
	}
}
