package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(BuildInfo{Version: "test"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokensCommand(t *testing.T) {
	path := writeTempYAML(t, "a: 1\n")
	out, err := runCommand(t, "", "tokens", path)
	require.NoError(t, err)
	assert.Contains(t, out, "STREAM_START_TOKEN")
	assert.Contains(t, out, `SCALAR_TOKEN "a"`)
	assert.Contains(t, out, `SCALAR_TOKEN "1"`)
	assert.Contains(t, out, "BLOCK_MAPPING_START_TOKEN")
	assert.Contains(t, out, "STREAM_END_TOKEN")
}

func TestEventsCommand(t *testing.T) {
	path := writeTempYAML(t, "- x\n- y\n")
	out, err := runCommand(t, "", "events", path)
	require.NoError(t, err)
	want := "+STR\n+DOC\n+SEQ\n=VAL :x\n=VAL :y\n-SEQ\n-DOC\n-STR\n"
	assert.Equal(t, want, out)
}

func TestEventsCommandReadsStdin(t *testing.T) {
	out, err := runCommand(t, "k: v\n", "events")
	require.NoError(t, err)
	assert.Contains(t, out, "=VAL :k")
	assert.Contains(t, out, "=VAL :v")
}

func TestGraphCommand(t *testing.T) {
	path := writeTempYAML(t, "- &x a\n- *x\n")
	out, err := runCommand(t, "", "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "document 0 (2 nodes)")
	assert.Contains(t, out, "SEQUENCE_NODE")
	assert.Contains(t, out, "items=[1 1]")
	assert.Contains(t, out, "&x")
}

func TestFmtCommand(t *testing.T) {
	path := writeTempYAML(t, "{a: 1, b: [x, y]}\n")
	out, err := runCommand(t, "", "fmt", path)
	require.NoError(t, err)
	assert.Equal(t, "{a: 1, b: [x, y]}\n", out)
}

func TestFmtCommandIndentFlag(t *testing.T) {
	path := writeTempYAML(t, "a:\n  b: 1\n")
	out, err := runCommand(t, "", "fmt", "--indent", "4", path)
	require.NoError(t, err)
	assert.Equal(t, "a:\n    b: 1\n", out)
}

func TestCommandsReportParseErrors(t *testing.T) {
	path := writeTempYAML(t, "a: *missing\n")
	_, err := runCommand(t, "", "fmt", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found undefined alias missing")
}

func TestMissingFile(t *testing.T) {
	_, err := runCommand(t, "", "tokens", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
