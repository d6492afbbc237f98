// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScalarImplicit(t *testing.T) {
	tests := []struct {
		value string
		tag   string
	}{
		{"", NULL_TAG},
		{"~", NULL_TAG},
		{"null", NULL_TAG},
		{"NULL", NULL_TAG},

		{"yes", BOOL_TAG},
		{"No", BOOL_TAG},
		{"true", BOOL_TAG},
		{"FALSE", BOOL_TAG},
		{"on", BOOL_TAG},
		{"Off", BOOL_TAG},

		{"0", INT_TAG},
		{"42", INT_TAG},
		{"-17", INT_TAG},
		{"+99", INT_TAG},
		{"0x1F", INT_TAG},
		{"-0xdead", INT_TAG},
		{"0755", INT_TAG},

		{"3.14", FLOAT_TAG},
		{"-0.5", FLOAT_TAG},
		{"1e5", FLOAT_TAG},
		{"1.5e-3", FLOAT_TAG},
		{".inf", FLOAT_TAG},
		{"-.Inf", FLOAT_TAG},
		{".NaN", FLOAT_TAG},

		{"hello", STR_TAG},
		{"09", STR_TAG},   // not octal, not decimal
		{"0x", STR_TAG},   // truncated hex
		{"1.2.3", STR_TAG},
		{"1e", STR_TAG},
		{"- 1", STR_TAG},
		{"nully", STR_TAG},
		{"Y", STR_TAG}, // single letters are not booleans
	}
	resolver := StandardResolver{}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			tag, err := resolver.Resolve(SCALAR_NODE, nil, tt.value, true)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestResolveScalarExplicit(t *testing.T) {
	// Non-plain scalars never resolve past str, whatever they contain.
	resolver := StandardResolver{}
	for _, value := range []string{"", "null", "42", "3.14", "yes"} {
		tag, err := resolver.Resolve(SCALAR_NODE, nil, value, false)
		require.NoError(t, err)
		assert.Equal(t, STR_TAG, tag, "value %q", value)
	}
}

func TestResolveCollections(t *testing.T) {
	resolver := StandardResolver{}

	tag, err := resolver.Resolve(SEQUENCE_NODE, nil, "", true)
	require.NoError(t, err)
	assert.Equal(t, SEQ_TAG, tag)

	tag, err = resolver.Resolve(MAPPING_NODE, nil, "", true)
	require.NoError(t, err)
	assert.Equal(t, MAP_TAG, tag)
}

func TestResolveDeterministic(t *testing.T) {
	// The same input resolves identically every time; the path does not
	// influence the standard resolver.
	resolver := StandardResolver{}
	path := []PathArc{
		{Kind: MAPPING_VALUE_ARC, Key: "port"},
		{Kind: SEQUENCE_ITEM_ARC, Index: 3},
	}
	first, err := resolver.Resolve(SCALAR_NODE, path, "8080", true)
	require.NoError(t, err)
	second, err := resolver.Resolve(SCALAR_NODE, nil, "8080", true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, INT_TAG, first)
}
