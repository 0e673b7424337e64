// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the CRM assistant tool catalog and allow-list filtering.
//
// The router never executes tools. It decides which slice of the catalog the
// answering model is allowed to see, and this package supplies the catalog,
// the named groups the decision table combines, and the filter that applies
// the result.
//
// # Key Types
//
//   - Tool: Tool definition with name, group, description and parameters
//   - Set: Immutable set of tool names; groups combine with Union
//   - Catalog: Source of the ordered tool list (built-in or YAML file)
//   - Registry: Name index over a catalog
//
// # Groups
//
// Read, Write, Research, Document, Email, Meeting, Admin and Quotes. Groups
// overlap freely and are never mutated after init.
//
// # Usage
//
//	catalog := tools.DefaultCatalog()
//	visible := tools.Filter(catalog, tools.ReadGroup.Union(tools.WriteGroup))
//
// Filter laws:
//   - nil subset: catalog unchanged
//   - empty subset: no tools
//   - otherwise catalog order is preserved and unknown names are dropped
package tools
