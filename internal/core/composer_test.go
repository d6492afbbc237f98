// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeOne(t *testing.T, input string) *Document {
	t.Helper()
	doc, err := NewComposerBytes([]byte(input)).Compose()
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func TestComposeScalarDocument(t *testing.T) {
	doc := composeOne(t, "hello\n")
	require.Len(t, doc.Nodes, 1)
	root := doc.Root()
	assert.Equal(t, SCALAR_NODE, root.Kind)
	assert.Equal(t, STR_TAG, root.Tag)
	assert.Equal(t, "hello", root.Value)
	assert.True(t, doc.StartImplicit)
	assert.True(t, doc.EndImplicit)
}

func TestComposeMappingResolvesTags(t *testing.T) {
	doc := composeOne(t, "count: 42\nratio: 0.5\nactive: yes\nempty: ~\nname: web\n")
	root := doc.Root()
	require.Equal(t, MAPPING_NODE, root.Kind)
	require.Equal(t, MAP_TAG, root.Tag)
	require.Len(t, root.Pairs, 5)

	wantTags := []string{INT_TAG, FLOAT_TAG, BOOL_TAG, NULL_TAG, STR_TAG}
	for i, pair := range root.Pairs {
		key, err := doc.Node(pair.Key)
		require.NoError(t, err)
		assert.Equal(t, STR_TAG, key.Tag)
		value, err := doc.Node(pair.Value)
		require.NoError(t, err)
		assert.Equal(t, wantTags[i], value.Tag, "pair %d", i)
	}
}

func TestComposeQuotedScalarsResolveToStr(t *testing.T) {
	doc := composeOne(t, "- '42'\n- \"yes\"\n- 42\n")
	root := doc.Root()
	require.Len(t, root.Items, 3)
	for i, want := range []string{STR_TAG, STR_TAG, INT_TAG} {
		node, err := doc.Node(root.Items[i])
		require.NoError(t, err)
		assert.Equal(t, want, node.Tag)
	}
}

func TestComposeAnchorsAndAliases(t *testing.T) {
	doc := composeOne(t, "- &x a\n- *x\n- b\n")
	root := doc.Root()
	require.Equal(t, SEQUENCE_NODE, root.Kind)
	// The alias shares the anchored node's id; no copy is made.
	require.Len(t, root.Items, 3)
	assert.Equal(t, root.Items[0], root.Items[1])
	anchored, err := doc.Node(root.Items[0])
	require.NoError(t, err)
	assert.Equal(t, "x", anchored.Anchor)
	assert.Equal(t, "a", anchored.Value)
}

func TestComposeSelfReferenceCycle(t *testing.T) {
	// The anchor is visible to the node's own children.
	doc := composeOne(t, "&a [*a]\n")
	require.Len(t, doc.Nodes, 1)
	root := doc.Root()
	require.Equal(t, SEQUENCE_NODE, root.Kind)
	assert.Equal(t, []int{0}, root.Items)
	assert.Equal(t, "a", root.Anchor)
}

func TestComposeMutualCycle(t *testing.T) {
	doc := composeOne(t, "&m\nleft: &inner\n  back: *m\nright: *inner\n")
	root := doc.Root()
	require.Equal(t, MAPPING_NODE, root.Kind)
	require.Len(t, root.Pairs, 2)

	inner, err := doc.Node(root.Pairs[0].Value)
	require.NoError(t, err)
	require.Equal(t, MAPPING_NODE, inner.Kind)
	require.Len(t, inner.Pairs, 1)
	// back points at the root itself.
	assert.Equal(t, 0, inner.Pairs[0].Value)
	// right aliases the inner mapping.
	assert.Equal(t, root.Pairs[0].Value, root.Pairs[1].Value)
}

func TestComposeAnchorRedefinition(t *testing.T) {
	// A redefined anchor silently rebinds; later aliases see the newest node.
	doc := composeOne(t, "- &x a\n- &x b\n- *x\n")
	root := doc.Root()
	require.Len(t, root.Items, 3)
	assert.NotEqual(t, root.Items[0], root.Items[1])
	assert.Equal(t, root.Items[1], root.Items[2])
}

func TestComposeDanglingAlias(t *testing.T) {
	_, err := NewComposerBytes([]byte("a: *missing\n")).Compose()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found undefined alias missing")
	var compErr ComposerError
	assert.ErrorAs(t, err, &compErr)
}

func TestComposeAnchorScopePerDocument(t *testing.T) {
	// Anchors do not leak into the next document.
	composer := NewComposerBytes([]byte("&x a\n---\n*x\n"))
	doc, err := composer.Compose()
	require.NoError(t, err)
	require.NotNil(t, doc)
	_, err = composer.Compose()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found undefined alias x")
}

func TestComposeMultipleDocuments(t *testing.T) {
	composer := NewComposerBytes([]byte("a\n---\nb\n...\n"))

	first, err := composer.Compose()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "a", first.Root().Value)
	assert.True(t, first.StartImplicit)

	second, err := composer.Compose()
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "b", second.Root().Value)
	assert.False(t, second.StartImplicit)
	assert.False(t, second.EndImplicit)

	third, err := composer.Compose()
	require.NoError(t, err)
	assert.Nil(t, third)

	// Further calls keep reporting end of stream.
	fourth, err := composer.Compose()
	require.NoError(t, err)
	assert.Nil(t, fourth)
}

func TestComposeEmptyStream(t *testing.T) {
	doc, err := NewComposerBytes(nil).Compose()
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestComposeSingle(t *testing.T) {
	doc, err := NewComposerBytes([]byte("a: 1\n")).ComposeSingle()
	require.NoError(t, err)
	require.NotNil(t, doc)

	_, err = NewComposerBytes([]byte("a\n---\nb\n")).ComposeSingle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a single document in the stream")
	assert.Contains(t, err.Error(), "while composing a single document")
}

func TestComposeDirectivesRecorded(t *testing.T) {
	doc := composeOne(t, "%YAML 1.1\n%TAG !e! tag:example.com,2000:\n---\n!e!a b\n")
	require.NotNil(t, doc.VersionDirective)
	assert.Equal(t, 1, doc.VersionDirective.Major)
	assert.Equal(t, 1, doc.VersionDirective.Minor)
	require.Len(t, doc.TagDirectives, 1)
	assert.Equal(t, "!e!", doc.TagDirectives[0].Handle)
	assert.Equal(t, "tag:example.com,2000:", doc.TagDirectives[0].Prefix)
	assert.Equal(t, "tag:example.com,2000:a", doc.Root().Tag)
}

func TestComposeMarks(t *testing.T) {
	doc := composeOne(t, "a: 1\nb:\n  - x\n")
	root := doc.Root()
	assert.Equal(t, Mark{Index: 0, Line: 0, Column: 0}, root.StartMark)

	seq, err := doc.Node(root.Pairs[1].Value)
	require.NoError(t, err)
	assert.Equal(t, 2, seq.StartMark.Line)
	assert.Equal(t, 2, seq.StartMark.Column)
}

func TestComposeStylePreserved(t *testing.T) {
	doc := composeOne(t, "a: [1, 2]\nb: |\n  x\nc: 'q'\n")
	root := doc.Root()

	flow, err := doc.Node(root.Pairs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, FLOW_SEQUENCE_STYLE, flow.SequenceStyle())

	lit, err := doc.Node(root.Pairs[1].Value)
	require.NoError(t, err)
	assert.Equal(t, LITERAL_SCALAR_STYLE, lit.ScalarStyle())

	single, err := doc.Node(root.Pairs[2].Value)
	require.NoError(t, err)
	assert.Equal(t, SINGLE_QUOTED_SCALAR_STYLE, single.ScalarStyle())
}

type uppercaseResolver struct{}

func (uppercaseResolver) Resolve(kind NodeKind, path []PathArc, value string, implicit bool) (string, error) {
	switch kind {
	case SEQUENCE_NODE:
		return SEQ_TAG, nil
	case MAPPING_NODE:
		return MAP_TAG, nil
	}
	return "tag:example.com,2000:upper", nil
}

func TestComposeCustomResolver(t *testing.T) {
	composer := NewComposerBytes([]byte("a: 1\n"))
	composer.SetResolver(uppercaseResolver{})
	doc, err := composer.Compose()
	require.NoError(t, err)
	key, err := doc.Node(doc.Root().Pairs[0].Key)
	require.NoError(t, err)
	assert.Equal(t, "tag:example.com,2000:upper", key.Tag)
}
