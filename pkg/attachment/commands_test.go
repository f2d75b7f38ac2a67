// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"reflect"
	"testing"
)

func TestCommandsSetGetHas(t *testing.T) {
	c := NewCommands()
	if c.Has("pages") {
		t.Error("fresh Commands should not have any keys")
	}
	if _, ok := c.Get("pages"); ok {
		t.Error("Get on a missing key should report ok=false")
	}

	c.Set("pages", "1-3")
	if !c.Has("pages") {
		t.Error("Has should report true after Set")
	}
	if v, ok := c.Get("pages"); !ok || v != "1-3" {
		t.Errorf("Get(pages) = (%q, %v), want (1-3, true)", v, ok)
	}
}

func TestCommandsSetIsLastWinsWithoutReorderingKeys(t *testing.T) {
	c := NewCommands()
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "override")

	if got, want := c.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v (first-seen order preserved)", got, want)
	}
	if v, _ := c.Get("a"); v != "override" {
		t.Errorf("Get(a) = %q, want last-wins value %q", v, "override")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (overwrite should not add a duplicate key)", c.Len())
	}
}

func TestCommandsCloneIsIndependent(t *testing.T) {
	c := NewCommands()
	c.Set("strip-html", "true")

	cp := c.Clone()
	cp.Set("strip-html", "false")
	cp.Set("new-key", "x")

	if v, _ := c.Get("strip-html"); v != "true" {
		t.Errorf("mutating the clone changed the original: %q", v)
	}
	if c.Has("new-key") {
		t.Error("mutating the clone added a key to the original")
	}
	if cp.Len() != 2 {
		t.Errorf("clone should have 2 keys after its own mutation, got %d", cp.Len())
	}
}

func TestCommandsMapSnapshot(t *testing.T) {
	c := NewCommands()
	c.Set("pages", "1-3")
	c.Set("rotate", "90")

	m := c.Map()
	if want := map[string]string{"pages": "1-3", "rotate": "90"}; !reflect.DeepEqual(m, want) {
		t.Errorf("Map() = %v, want %v", m, want)
	}

	m["pages"] = "mutated"
	if v, _ := c.Get("pages"); v != "1-3" {
		t.Errorf("mutating the Map() snapshot affected the underlying Commands: %q", v)
	}
}

func TestCommandsKeysReturnsCopy(t *testing.T) {
	c := NewCommands()
	c.Set("a", "1")

	keys := c.Keys()
	keys[0] = "mutated"

	if got := c.Keys(); got[0] != "a" {
		t.Errorf("mutating the Keys() slice affected internal state: %v", got)
	}
}
