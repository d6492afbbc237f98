// SPDX-License-Identifier: Apache-2.0

package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dumpOne(t *testing.T, doc *Document) string {
	t.Helper()
	var buf bytes.Buffer
	serializer := NewSerializer(&buf)
	require.NoError(t, serializer.Serialize(doc))
	require.NoError(t, serializer.Close())
	return buf.String()
}

// reformat runs text through the full pipeline and back.
func reformat(t *testing.T, input string) string {
	t.Helper()
	composer := NewComposerBytes([]byte(input))
	var buf bytes.Buffer
	serializer := NewSerializer(&buf)
	for {
		doc, err := composer.Compose()
		require.NoError(t, err)
		if doc == nil {
			break
		}
		require.NoError(t, serializer.Serialize(doc))
	}
	require.NoError(t, serializer.Close())
	return buf.String()
}

func TestRoundTripStable(t *testing.T) {
	// Inputs already in the emitter's preferred shape come back unchanged.
	inputs := []string{
		"hello\n",
		"a: 1\n",
		"a: 1\nb: 2\n",
		"- x\n- y\n",
		"a: 1\nb:\n- x\n- y\n",
		"a:\n  b:\n    c: deep\n",
		"a: [1, 2]\n",
		"a: {b: 1}\n",
		"a: []\n",
		"b: {}\n",
		"a: 'quoted'\n",
		"a: \"line\\nbreak\"\n",
		"a: |\n  literal text\n",
		"a: |-\n  no newline\n",
		"a: null\n",
		"a: .inf\n",
		"- &x a\n- *x\n",
		"&a\n- *a\n",
		"%YAML 1.1\n---\na: 1\n",
		"a\n---\nb\n",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, input, reformat(t, input))
		})
	}
}

func TestRoundTripPreservesGraph(t *testing.T) {
	// Non-canonical layouts may be reformatted, but the reformatted text
	// must compose to the same graph.
	inputs := []string{
		"a:   1\nb:\n  - x\n",
		"{a: 1, b: [x, y]}\n",
		"? explicit\n: value\n",
		"key:\n- indentless\n- seq\n",
		"- 'it''s'\n- \"tab\\there\"\n",
		"!!str 42\n",
		"%TAG !e! tag:example.com,2000:\n---\n!e!x v\n",
		"--- a\n...\n",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first, err := NewComposerBytes([]byte(input)).Compose()
			require.NoError(t, err)

			text := reformat(t, input)
			second, err := NewComposerBytes([]byte(text)).Compose()
			require.NoError(t, err, "reformatted text: %q", text)

			require.Equal(t, len(first.Nodes), len(second.Nodes), "reformatted text: %q", text)
			for i := range first.Nodes {
				a, b := &first.Nodes[i], &second.Nodes[i]
				assert.Equal(t, a.Kind, b.Kind)
				assert.Equal(t, a.Tag, b.Tag)
				assert.Equal(t, a.Value, b.Value)
				assert.Equal(t, a.Items, b.Items)
				assert.Equal(t, a.Pairs, b.Pairs)
			}
		})
	}
}

func TestSerializeAssignsAnchors(t *testing.T) {
	// A node referenced twice without a source anchor gets a generated one.
	doc := &Document{StartImplicit: true, EndImplicit: true}
	seq := doc.AddSequence("", BLOCK_SEQUENCE_STYLE)
	shared := doc.AddScalar("", "shared", ANY_SCALAR_STYLE)
	require.NoError(t, doc.AppendSequenceItem(seq, shared))
	require.NoError(t, doc.AppendSequenceItem(seq, shared))

	out := dumpOne(t, doc)
	assert.Equal(t, "- &a1 shared\n- *a1\n", out)
}

func TestSerializeKeepsSourceAnchors(t *testing.T) {
	assert.Equal(t, "- &x a\n- *x\n", reformat(t, "- &x a\n- *x\n"))
}

func TestSerializeCycle(t *testing.T) {
	doc := &Document{StartImplicit: true, EndImplicit: true}
	seq := doc.AddSequence("", BLOCK_SEQUENCE_STYLE)
	require.NoError(t, doc.AppendSequenceItem(seq, seq))

	out := dumpOne(t, doc)
	assert.Equal(t, "&a1\n- *a1\n", out)
}

func TestSerializeTagElision(t *testing.T) {
	doc := &Document{StartImplicit: true, EndImplicit: true}
	root := doc.AddMapping("", ANY_MAPPING_STYLE)

	// An int-tagged "1" round-trips plain; a str-tagged "1" must be quoted
	// so the reader does not resolve it back to an integer.
	k1 := doc.AddScalar("", "int", ANY_SCALAR_STYLE)
	v1 := doc.AddScalar(INT_TAG, "1", ANY_SCALAR_STYLE)
	require.NoError(t, doc.AppendMappingPair(root, k1, v1))

	k2 := doc.AddScalar("", "str", ANY_SCALAR_STYLE)
	v2 := doc.AddScalar(STR_TAG, "1", ANY_SCALAR_STYLE)
	require.NoError(t, doc.AppendMappingPair(root, k2, v2))

	out := dumpOne(t, doc)
	assert.Equal(t, "int: 1\nstr: '1'\n", out)
}

func TestSerializeExplicitTag(t *testing.T) {
	doc := &Document{StartImplicit: true, EndImplicit: true}
	doc.AddScalar("tag:example.com,2000:thing", "v", ANY_SCALAR_STYLE)
	out := dumpOne(t, doc)
	assert.Equal(t, "!<tag:example.com,2000:thing> v\n", out)
}

func TestSerializeShorthandTagViaDirective(t *testing.T) {
	doc := &Document{
		StartImplicit: false,
		EndImplicit:   true,
		TagDirectives: []TagDirective{{Handle: "!e!", Prefix: "tag:example.com,2000:"}},
	}
	doc.AddScalar("tag:example.com,2000:thing", "v", ANY_SCALAR_STYLE)
	out := dumpOne(t, doc)
	assert.Equal(t, "%TAG !e! tag:example.com,2000:\n---\n!e!thing v\n", out)
}

func TestSerializeMultipleDocuments(t *testing.T) {
	var buf bytes.Buffer
	serializer := NewSerializer(&buf)
	for _, value := range []string{"one", "two"} {
		doc := &Document{StartImplicit: true, EndImplicit: true}
		doc.AddScalar("", value, ANY_SCALAR_STYLE)
		require.NoError(t, serializer.Serialize(doc))
	}
	require.NoError(t, serializer.Close())
	assert.Equal(t, "one\n---\ntwo\n", buf.String())
}

func TestSerializeAfterClose(t *testing.T) {
	var buf bytes.Buffer
	serializer := NewSerializer(&buf)
	require.NoError(t, serializer.Close())
	doc := &Document{StartImplicit: true, EndImplicit: true}
	doc.AddScalar("", "x", ANY_SCALAR_STYLE)
	assert.Error(t, serializer.Serialize(doc))
}

func TestSerializeEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	serializer := NewSerializer(&buf)
	require.NoError(t, serializer.Close())
	assert.Equal(t, "", buf.String())
}

func TestEmitterIndentOption(t *testing.T) {
	var buf bytes.Buffer
	serializer := NewSerializer(&buf)
	serializer.Emitter().Indent = 4

	doc, err := NewComposerBytes([]byte("a:\n  b: 1\n")).Compose()
	require.NoError(t, err)
	require.NoError(t, serializer.Serialize(doc))
	require.NoError(t, serializer.Close())
	assert.Equal(t, "a:\n    b: 1\n", buf.String())
}

func TestEmitterScalarStyleFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		value string
		style ScalarStyle
		want  string
	}{
		{"plain stays plain", "word", PLAIN_SCALAR_STYLE, "word\n"},
		{"leading space forces quotes", " padded", PLAIN_SCALAR_STYLE, "' padded'\n"},
		{"indicator forces quotes", "- dash", PLAIN_SCALAR_STYLE, "'- dash'\n"},
		{"colon space forces quotes", "a: b", PLAIN_SCALAR_STYLE, "'a: b'\n"},
		{"hash forces quotes", "a #comment", PLAIN_SCALAR_STYLE, "'a #comment'\n"},
		{"control char forces double", "a\x07b", PLAIN_SCALAR_STYLE, "\"a\\ab\"\n"},
		{"literal multiline", "one\ntwo\n", LITERAL_SCALAR_STYLE, "|\n  one\n  two\n"},
		{"literal without trailing break", "one", LITERAL_SCALAR_STYLE, "|-\n  one\n"},
		{"folded", "one two\n", FOLDED_SCALAR_STYLE, ">\n  one two\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{StartImplicit: true, EndImplicit: true}
			tag := resolveScalar(tt.value)
			doc.AddScalar(tag, tt.value, tt.style)
			assert.Equal(t, tt.want, dumpOne(t, doc))
		})
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, assert.AnError
}

func TestWriterErrorSurfaces(t *testing.T) {
	serializer := NewSerializer(&failingWriter{})
	doc := &Document{StartImplicit: true, EndImplicit: true}
	doc.AddScalar("", "x", ANY_SCALAR_STYLE)
	err := serializer.Serialize(doc)
	if err == nil {
		err = serializer.Close()
	}
	require.Error(t, err)
	var writeErr WriterError
	assert.ErrorAs(t, err, &writeErr)
}
