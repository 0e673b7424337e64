// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

// Filter applies an allow-list to the catalog.
//
//   - nil subset: the catalog is returned unchanged
//   - empty subset: no tools
//   - otherwise: catalog members named in subset, in catalog order
//
// Names in subset that are not in the catalog are ignored.
func Filter(catalog []Tool, subset *Set) []Tool {
	if subset == nil {
		return catalog
	}
	out := make([]Tool, 0, subset.Len())
	if subset.Len() == 0 {
		return out
	}
	for _, t := range catalog {
		if subset.Has(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// Names returns the tool names in order.
func Names(list []Tool) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Name
	}
	return out
}
