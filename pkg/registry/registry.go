// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"sync"

	"github.com/kraklabs/attachments/pkg/attachment"
)

// Registry holds the six verb tables; the processor table is the separate
// ProcessorTable (pkg registration happens once at init time; lookups are read-mostly and
// safe for concurrent use after setup completes).
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind][]*HandlerRecord
	seq      int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[Kind][]*HandlerRecord)}
}

// Register adds a HandlerRecord to its Kind's table, stamping its
// registration order for tie-breaking within a dispatch tier (§4.2).
func (r *Registry) Register(rec *HandlerRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rec.order = r.seq
	r.handlers[rec.Kind] = append(r.handlers[rec.Kind], rec)
}

// All returns the registered handlers of a given Kind, in registration
// order.
func (r *Registry) All(kind Kind) []*HandlerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*HandlerRecord, len(r.handlers[kind]))
	copy(out, r.handlers[kind])
	return out
}

// ByName returns the handler of the given Kind registered under name, or
// nil if none matches — used when the DSL explicitly names a handler
// (e.g. [split:paragraphs]) rather than relying on dispatch.
func (r *Registry) ByName(kind Kind, name string) *HandlerRecord {
	for _, h := range r.All(kind) {
		if h.Name == name {
			return h
		}
	}
	return nil
}

// Names returns the registered names for a Kind, in registration order —
// used by the suggestion engine when an explicitly named handler doesn't
// exist (§4.1) and by bootstrap's engine-build log.
func (r *Registry) Names(kind Kind) []string {
	handlers := r.All(kind)
	out := make([]string, len(handlers))
	for i, h := range handlers {
		out[i] = h.Name
	}
	return out
}

// subtypes is the registered type-hierarchy used by DispatchSubtype:
// child class-name -> its declared ancestors, nearest first. Ancestry is
// declared via RegisterSubtype (pkg/handlers does so in Register), since
// Go has no runtime class hierarchy to introspect (§9 design note).
var (
	subtypesMu sync.RWMutex
	subtypes   = map[string][]string{}
)

// RegisterSubtype declares that className is-a each of ancestors, nearest
// first, for the DispatchSubtype dispatch tier.
func RegisterSubtype(className string, ancestors ...string) {
	subtypesMu.Lock()
	defer subtypesMu.Unlock()
	subtypes[className] = append(append([]string(nil), subtypes[className]...), ancestors...)
}

// IsSubtype reports whether className is registered as a (possibly
// transitive) subtype of ancestor, or is itself ancestor.
func IsSubtype(className, ancestor string) bool {
	if className == ancestor {
		return true
	}
	subtypesMu.RLock()
	defer subtypesMu.RUnlock()
	seen := map[string]bool{className: true}
	queue := append([]string(nil), subtypes[className]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == ancestor {
			return true
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, subtypes[next]...)
	}
	return false
}

// matches reports whether a handler's Dispatch descriptor accepts obj's
// current tagged variant, for the tier named by tier.
func matches(d Dispatch, obj attachment.Object, tier DispatchKind) bool {
	if d.Kind != tier {
		return false
	}
	switch tier {
	case DispatchExact:
		return obj.Kind == d.ExactKind
	case DispatchName:
		return obj.TypeName() == d.ClassName
	case DispatchSubtype:
		return IsSubtype(obj.TypeName(), d.SubtypeOf)
	case DispatchRegex:
		return d.Pattern != nil && d.Pattern.MatchString(obj.TypeName())
	default:
		return false
	}
}
