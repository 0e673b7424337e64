// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_NilSubsetReturnsCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	got := Filter(catalog, nil)
	assert.Equal(t, Names(catalog), Names(got))
}

func TestFilter_EmptySubsetReturnsNothing(t *testing.T) {
	got := Filter(DefaultCatalog(), EmptySet())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_PreservesCatalogOrder(t *testing.T) {
	catalog := DefaultCatalog()
	subset := NewSet("log_activity", "search_leads", "create_lead", "get_forecast")

	got := Names(Filter(catalog, subset))

	assert.Equal(t, []string{"search_leads", "get_forecast", "create_lead", "log_activity"}, got)
}

func TestFilter_UnknownNamesIgnored(t *testing.T) {
	subset := NewSet("search_leads", "does_not_exist")
	got := Names(Filter(DefaultCatalog(), subset))
	assert.Equal(t, []string{"search_leads"}, got)
}

func TestFilter_SubsetOfCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	for name, group := range Groups() {
		t.Run(name, func(t *testing.T) {
			got := Filter(catalog, group)
			assert.LessOrEqual(t, len(got), len(catalog))
			for _, tool := range got {
				assert.True(t, group.Has(tool.Name))
			}
		})
	}
}

func TestGroupsResolveAgainstCatalog(t *testing.T) {
	reg := NewRegistry(nil)
	for name, group := range Groups() {
		assert.Empty(t, reg.Unknown(group), "group %s names unknown tools", name)
	}
}

func TestCatalogGroupsMatchSets(t *testing.T) {
	groups := Groups()
	for _, tool := range DefaultCatalog() {
		g, ok := groups[tool.Group]
		require.True(t, ok, "tool %s has unknown group %q", tool.Name, tool.Group)
		assert.True(t, g.Has(tool.Name), "tool %s missing from group %s", tool.Name, tool.Group)
	}
}

func TestSet_UnionDoesNotMutate(t *testing.T) {
	a := NewSet("x", "y")
	b := NewSet("y", "z")

	u := a.Union(b)

	assert.Equal(t, []string{"x", "y", "z"}, u.Names())
	assert.Equal(t, []string{"x", "y"}, a.Names())
	assert.Equal(t, []string{"y", "z"}, b.Names())
}

func TestSet_NilBehavesEmpty(t *testing.T) {
	var s *Set
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("x"))
	assert.Empty(t, s.Names())
	assert.True(t, s.Equal(EmptySet()))
	assert.Equal(t, []string{"a"}, s.Union(NewSet("a")).Names())
}

func TestSet_MarshalJSON(t *testing.T) {
	type wrapper struct {
		Subset *Set `json:"subset"`
	}

	data, err := json.Marshal(wrapper{Subset: NewSet("b", "a")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subset":["a","b"]}`, string(data))

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subset":null}`, string(data))
}

func TestRegistry_RegisterKeepsPosition(t *testing.T) {
	reg := NewRegistry(nil)
	before := Names(reg.Tools())

	reg.Register(Tool{Name: "search_leads", Description: "replaced", Group: GroupRead})
	reg.Register(Tool{Name: "custom_tool", Group: GroupRead})

	after := Names(reg.Tools())
	assert.Equal(t, before, after[:len(before)])
	assert.Equal(t, "custom_tool", after[len(after)-1])

	got, ok := reg.Get("search_leads")
	require.True(t, ok)
	assert.Equal(t, "replaced", got.Description)
}
