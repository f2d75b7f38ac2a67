// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"strconv"
	"strings"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/suggest"
)

// Params is the coerced view of a handler's declared Param manifest after
// binding against the DSL's raw Commands, per the auto-parameter binding
// design note in spec.md §9.
type Params struct {
	values map[string]any
}

func (p Params) String(name string) string {
	v, _ := p.values[name].(string)
	return v
}

func (p Params) Int(name string) int {
	v, _ := p.values[name].(int)
	return v
}

func (p Params) Float(name string) float64 {
	v, _ := p.values[name].(float64)
	return v
}

func (p Params) Bool(name string) bool {
	v, _ := p.values[name].(bool)
	return v
}

// Has reports whether p holds a value for name: true for every parameter
// of the bound manifest (DSL-supplied or defaulted) and for overridden
// names. It does not tell a DSL-supplied value from a default.
func (p Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Bind coerces cmds against the declared manifest, returning a fatal
// DSLValueError for any key present in cmds that isn't in manifest (after
// consulting the suggestion engine) or any value that fails its declared
// kind's coercion.
func Bind(manifest []Param, cmds *attachment.Commands) (Params, error) {
	known := make(map[string]Param, len(manifest))
	var names []string
	for _, p := range manifest {
		known[p.Name] = p
		names = append(names, p.Name)
	}

	for _, key := range cmds.Keys() {
		if _, ok := known[key]; !ok {
			return Params{}, errs.DSLValue("command", key, suggest.Nearest(key, names))
		}
	}

	out := make(map[string]any, len(manifest))
	for _, decl := range manifest {
		raw, supplied := cmds.Get(decl.Name)
		if !supplied {
			out[decl.Name] = decl.Default
			continue
		}
		v, err := coerce(decl, raw)
		if err != nil {
			return Params{}, err
		}
		out[decl.Name] = v
	}
	return Params{values: out}, nil
}

// WithOverride returns a copy of p with name forced to value, regardless
// of what Bind produced from the DSL — the call-site override layer
// ADAPT handlers honor ahead of both DSL and process defaults (§4.10).
func (p Params) WithOverride(name string, value any) Params {
	out := make(map[string]any, len(p.values)+1)
	for k, v := range p.values {
		out[k] = v
	}
	out[name] = value
	return Params{values: out}
}

func coerce(decl Param, raw string) (any, error) {
	switch decl.Kind {
	case ParamInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, errs.DSLValue(decl.Name, raw, "")
		}
		return n, nil
	case ParamFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errs.DSLValue(decl.Name, raw, "")
		}
		return f, nil
	case ParamBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, errs.DSLValue(decl.Name, raw, "")
		}
		return b, nil
	case ParamEnum:
		for _, v := range decl.EnumValues {
			if v == raw {
				return raw, nil
			}
		}
		return nil, errs.DSLValue(decl.Name, raw, suggest.Nearest(raw, decl.EnumValues))
	default:
		return raw, nil
	}
}
