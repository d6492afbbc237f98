package yamlkit_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit"
)

func TestLoadDumpRoundTrip(t *testing.T) {
	input := "name: demo\nports:\n- 80\n- 443\nnested:\n  flag: true\n"
	doc, err := yamlkit.Load([]byte(input))
	require.NoError(t, err)
	require.NotNil(t, doc)

	var buf bytes.Buffer
	require.NoError(t, yamlkit.Dump(&buf, doc, nil))
	assert.Equal(t, input, buf.String())
}

func TestLoadEmpty(t *testing.T) {
	doc, err := yamlkit.Load(nil)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestLoadAllAndDumpAll(t *testing.T) {
	input := "a: 1\n---\nb: 2\n---\nc: 3\n"
	docs, err := yamlkit.LoadAll([]byte(input))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	var buf bytes.Buffer
	require.NoError(t, yamlkit.DumpAll(&buf, docs, nil))
	assert.Equal(t, input, buf.String())
}

func TestLoadSingleRejectsMultipleDocuments(t *testing.T) {
	_, err := yamlkit.LoadSingle([]byte("a\n---\nb\n"))
	require.Error(t, err)
	var compErr yamlkit.ComposerError
	assert.True(t, errors.As(err, &compErr))
}

func TestLoadReportsPosition(t *testing.T) {
	_, err := yamlkit.Load([]byte("a: *nope\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found undefined alias nope")
	assert.Contains(t, err.Error(), "line 1")
}

func TestDumpOptions(t *testing.T) {
	doc, err := yamlkit.Load([]byte("outer:\n  inner: 1\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, yamlkit.Dump(&buf, doc, &yamlkit.DumpOptions{Indent: 4}))
	assert.Equal(t, "outer:\n    inner: 1\n", buf.String())
}

func TestGraphInspection(t *testing.T) {
	doc, err := yamlkit.Load([]byte("- &x 1\n- *x\n"))
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, yamlkit.SequenceNode, root.Kind)
	require.Len(t, root.Items, 2)
	assert.Equal(t, root.Items[0], root.Items[1])

	last, err := doc.Node(-1)
	require.NoError(t, err)
	assert.Equal(t, "1", last.Value)
}

func TestEventLevelAccess(t *testing.T) {
	parser := yamlkit.NewParser(bytes.NewReader([]byte("k: v\n")))
	var types []yamlkit.EventType
	for !parser.Done() {
		var event yamlkit.Event
		require.NoError(t, parser.Parse(&event))
		types = append(types, event.Type)
	}
	require.Len(t, types, 8)
}
