// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"sync"
)

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// Registry indexes a catalog by name while preserving catalog order.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewRegistry creates a registry seeded from the given catalog.
// A nil catalog seeds the built-in CRM catalog.
func NewRegistry(c Catalog) *Registry {
	if c == nil {
		c = Builtin()
	}
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range c.Tools() {
		r.Register(t)
	}
	return r
}

// Register adds a tool. Re-registering a name replaces the definition
// but keeps its original position.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns all registered tools in registration order.
// Registry satisfies Catalog.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tools[n])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Unknown returns the members of s that are not registered, sorted.
// Used by diagnostics to spot group/catalog drift.
func (r *Registry) Unknown(s *Set) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, n := range s.Names() {
		if _, ok := r.tools[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
