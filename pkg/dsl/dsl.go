// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dsl parses the embedded path-DSL: "path[cmd:v,cmd2:v2]...".
//
// Grammar (see spec):
//
//	source   = path [ "[" commands "]" ]
//	commands = command *( "," command )
//	command  = key ":" value
//	key      = 1*( letter / digit / "_" / "-" )
//	value    = *( %x20-7E / escape )   ; excludes unescaped ']' and ','
//	escape   = "\\" ( "]" / "," / "\\" )
//
// A value may additionally be wrapped in single or double quotes, in which
// case brackets, commas, and colons inside the quotes are preserved
// literally and the surrounding quote characters are stripped from the
// parsed value. At most one top-level bracket group is recognized; any
// content after its closing "]" is a syntax error.
package dsl

import (
	"fmt"
	"strings"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
)

// SyntaxError is returned for unparseable bracket content. It carries the
// byte offset into the original input where parsing failed, per §4.1.
type SyntaxError struct {
	Offset int
	Reason string
	Input  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dsl: malformed input at offset %d: %s", e.Offset, e.Reason)
}

// Tagged renders the SyntaxError as the taxonomy's fatal DSLSyntaxError.
func (e *SyntaxError) Tagged() *errs.TaggedError {
	return errs.DSLSyntax(e.Input, e.Offset, e.Reason)
}

// Result is a parsed "path[cmd:v,cmd2:v2]" source: the bare path plus its
// command set. DuplicateKeys reports which keys collided so callers can
// surface a suggestion-engine warning (§4.1); the colliding Commands value
// itself always resolves last-wins.
type Result struct {
	Path          string
	Commands      *attachment.Commands
	DuplicateKeys []string
}

// Parse splits "path[cmd:v,cmd2:v2]" into (path, Commands), per the
// bracket grammar in §4.1.
func Parse(source string) (*Result, error) {
	bracketStart := -1
	quote := byte(0)
	escaped := false

	for i := 0; i < len(source); i++ {
		c := source[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			if bracketStart == -1 {
				bracketStart = i
			}
			// A second unquoted '[' once already inside the top-level
			// group is literal value content (only ']' and ',' need
			// escaping per the value grammar); the scan keeps running
			// until the group's closing ']'.
		case c == ']':
			// An unescaped, unquoted ']' before any '[' was seen, or
			// before the bracket group we're tracking has been entered,
			// is malformed path content (path must never contain an
			// unescaped ']').
			if bracketStart == -1 {
				return nil, &SyntaxError{Offset: i, Reason: "unexpected ']' outside a command group", Input: source}
			}
		}
		if bracketStart != -1 && c == ']' && quote == 0 && !escaped {
			// Found the (first) top-level bracket group; anything after
			// this point must be empty.
			return finish(source, bracketStart, i)
		}
	}

	if bracketStart != -1 {
		return nil, &SyntaxError{Offset: bracketStart, Reason: "unterminated command group: missing ']'", Input: source}
	}

	// No DSL suffix at all.
	return &Result{Path: source, Commands: attachment.NewCommands()}, nil
}

func finish(source string, start, end int) (*Result, error) {
	path := source[:start]
	if strings.ContainsAny(path, "[]") {
		return nil, &SyntaxError{Offset: 0, Reason: "path contains unescaped bracket characters", Input: source}
	}
	if end+1 != len(source) {
		return nil, &SyntaxError{Offset: end + 1, Reason: "unexpected content after command group", Input: source}
	}

	body := source[start+1 : end]
	cmds, dups, err := parseCommands(source, start+1, body)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, Commands: cmds, DuplicateKeys: dups}, nil
}

func parseCommands(source string, bodyOffset int, body string) (*attachment.Commands, []string, error) {
	cmds := attachment.NewCommands()
	var dups []string

	if strings.TrimSpace(body) == "" {
		return cmds, dups, nil
	}

	for _, raw := range splitTopLevel(body, ',') {
		term := strings.TrimSpace(raw)
		if term == "" {
			continue
		}
		idx := findUnquotedColon(term)
		if idx == -1 {
			return nil, nil, &SyntaxError{
				Offset: bodyOffset,
				Reason: fmt.Sprintf("command %q is missing a ':' separator", term),
				Input:  source,
			}
		}
		key := strings.TrimSpace(term[:idx])
		valueRaw := strings.TrimSpace(term[idx+1:])
		if !validKey(key) {
			return nil, nil, &SyntaxError{
				Offset: bodyOffset,
				Reason: fmt.Sprintf("invalid command key %q", key),
				Input:  source,
			}
		}
		value := unescapeValue(valueRaw)
		if cmds.Has(key) {
			dups = append(dups, key)
		}
		cmds.Set(key, value)
	}
	return cmds, dups, nil
}

// splitTopLevel splits s on sep, ignoring separators that occur inside a
// quoted region or immediately after a backslash escape.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	quote := byte(0)
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			cur.WriteByte(c)
			escaped = true
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

func findUnquotedColon(s string) int {
	quote := byte(0)
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ':':
			return i
		}
	}
	return -1
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}

// unescapeValue resolves backslash escapes (\], \,, \\) and strips a
// single layer of surrounding quotes, preserving brackets/commas/colons
// inside the quoted region literally.
func unescapeValue(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			v = v[1 : len(v)-1]
		}
	}
	var sb strings.Builder
	escaped := false
	for i := 0; i < len(v); i++ {
		c := v[i]
		if escaped {
			sb.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && i+1 < len(v) && (v[i+1] == ']' || v[i+1] == ',' || v[i+1] == '\\') {
			escaped = true
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Emit renders (path, commands) back into DSL source form, the inverse of
// Parse used by the dsl-round-trip property in §8. Commas, closing
// brackets and backslashes in values are backslash-escaped.
func Emit(path string, cmds *attachment.Commands) string {
	if cmds == nil || cmds.Len() == 0 {
		return path
	}
	var sb strings.Builder
	sb.WriteString(path)
	sb.WriteByte('[')
	for i, key := range cmds.Keys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		v, _ := cmds.Get(key)
		sb.WriteString(key)
		sb.WriteByte(':')
		sb.WriteString(escapeValue(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

func escapeValue(v string) string {
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == ']' || c == ',' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
