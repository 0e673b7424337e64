// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"encoding/json"
	"sort"
)

// Set is an immutable set of tool names.
//
// There are no mutating methods; combining sets always yields a new Set.
// A nil *Set behaves as an empty set for every method here. Callers that
// need "no restriction" semantics (see Filter) must check for nil first.
type Set struct {
	names map[string]struct{}
}

// NewSet builds a set from the given names. Empty names are ignored.
func NewSet(names ...string) *Set {
	s := &Set{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n == "" {
			continue
		}
		s.names[n] = struct{}{}
	}
	return s
}

// EmptySet returns a set with no members.
func EmptySet() *Set {
	return NewSet()
}

// Union returns a new set containing the members of s and every other set.
func (s *Set) Union(others ...*Set) *Set {
	out := &Set{names: make(map[string]struct{}, s.Len())}
	for n := range s.members() {
		out.names[n] = struct{}{}
	}
	for _, o := range others {
		for n := range o.members() {
			out.names[n] = struct{}{}
		}
	}
	return out
}

// Has reports whether name is a member.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the members sorted lexically.
func (s *Set) Names() []string {
	out := make([]string, 0, s.Len())
	for n := range s.members() {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets have the same members.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for n := range s.members() {
		if !o.Has(n) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array of names.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *Set) members() map[string]struct{} {
	if s == nil {
		return nil
	}
	return s.names
}
