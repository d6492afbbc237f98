// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanTokens runs the scanner to completion and collects the tokens.
func scanTokens(t *testing.T, input string) []Token {
	t.Helper()
	scanner := NewScannerBytes([]byte(input))
	var out []Token
	for {
		token, err := scanner.Peek()
		require.NoError(t, err)
		out = append(out, *token)
		if token.Type == STREAM_END_TOKEN {
			return out
		}
		scanner.Skip()
	}
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScannerTokenSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		types []TokenType
	}{
		{
			name:  "block mapping",
			input: "a: 1\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				BLOCK_MAPPING_START_TOKEN,
				KEY_TOKEN, SCALAR_TOKEN,
				VALUE_TOKEN, SCALAR_TOKEN,
				BLOCK_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "block sequence",
			input: "- a\n- b\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				BLOCK_SEQUENCE_START_TOKEN,
				BLOCK_ENTRY_TOKEN, SCALAR_TOKEN,
				BLOCK_ENTRY_TOKEN, SCALAR_TOKEN,
				BLOCK_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "flow sequence",
			input: "[a, b]\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				FLOW_SEQUENCE_START_TOKEN,
				SCALAR_TOKEN,
				FLOW_ENTRY_TOKEN,
				SCALAR_TOKEN,
				FLOW_SEQUENCE_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "flow mapping",
			input: "{a: 1}\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				FLOW_MAPPING_START_TOKEN,
				KEY_TOKEN, SCALAR_TOKEN,
				VALUE_TOKEN, SCALAR_TOKEN,
				FLOW_MAPPING_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "directives and document markers",
			input: "%YAML 1.1\n%TAG !e! tag:example.com,2000:\n---\na\n...\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				VERSION_DIRECTIVE_TOKEN,
				TAG_DIRECTIVE_TOKEN,
				DOCUMENT_START_TOKEN,
				SCALAR_TOKEN,
				DOCUMENT_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "explicit key",
			input: "? k\n: v\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				BLOCK_MAPPING_START_TOKEN,
				KEY_TOKEN, SCALAR_TOKEN,
				VALUE_TOKEN, SCALAR_TOKEN,
				BLOCK_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "anchor alias and tag",
			input: "- &x !!str a\n- *x\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				BLOCK_SEQUENCE_START_TOKEN,
				BLOCK_ENTRY_TOKEN, ANCHOR_TOKEN, TAG_TOKEN, SCALAR_TOKEN,
				BLOCK_ENTRY_TOKEN, ALIAS_TOKEN,
				BLOCK_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "nested block collections",
			input: "a:\n  b:\n    - 1\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				BLOCK_MAPPING_START_TOKEN,
				KEY_TOKEN, SCALAR_TOKEN, VALUE_TOKEN,
				BLOCK_MAPPING_START_TOKEN,
				KEY_TOKEN, SCALAR_TOKEN, VALUE_TOKEN,
				BLOCK_SEQUENCE_START_TOKEN,
				BLOCK_ENTRY_TOKEN, SCALAR_TOKEN,
				BLOCK_END_TOKEN,
				BLOCK_END_TOKEN,
				BLOCK_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
		{
			name:  "comments are skipped",
			input: "# header\na: 1 # trailing\n",
			types: []TokenType{
				STREAM_START_TOKEN,
				BLOCK_MAPPING_START_TOKEN,
				KEY_TOKEN, SCALAR_TOKEN,
				VALUE_TOKEN, SCALAR_TOKEN,
				BLOCK_END_TOKEN,
				STREAM_END_TOKEN,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.types, tokenTypes(scanTokens(t, tt.input)))
		})
	}
}

func TestScannerScalarValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value string
		style ScalarStyle
	}{
		{"plain", "hello\n", "hello", PLAIN_SCALAR_STYLE},
		{"plain multiline folds", "a\n b\n", "a b", PLAIN_SCALAR_STYLE},
		{"single quoted", "'it''s'\n", "it's", SINGLE_QUOTED_SCALAR_STYLE},
		{"single quoted multiline", "'a\n b'\n", "a b", SINGLE_QUOTED_SCALAR_STYLE},
		{"double quoted escapes", "\"a\\tb\\n\\u263A\"\n", "a\tb\n\u263A", DOUBLE_QUOTED_SCALAR_STYLE},
		{"double quoted escaped break", "\"a\\\n b\"\n", "ab", DOUBLE_QUOTED_SCALAR_STYLE},
		{"literal", "|\n  a\n  b\n", "a\nb\n", LITERAL_SCALAR_STYLE},
		{"literal strip", "|-\n  a\n", "a", LITERAL_SCALAR_STYLE},
		{"literal keep", "|+\n  a\n\n", "a\n\n", LITERAL_SCALAR_STYLE},
		{"folded", ">\n  a\n  b\n", "a b\n", FOLDED_SCALAR_STYLE},
		{"folded more indented lines kept", ">\n  a\n   b\n", "a\n b\n", FOLDED_SCALAR_STYLE},
		{"literal explicit indent", "|2\n   a\n", " a\n", LITERAL_SCALAR_STYLE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := scanTokens(t, tt.input)
			require.Len(t, tokens, 3)
			assert.Equal(t, SCALAR_TOKEN, tokens[1].Type)
			assert.Equal(t, tt.value, tokens[1].Value)
			assert.Equal(t, tt.style, tokens[1].ScalarStyle())
		})
	}
}

func TestScannerTagTokens(t *testing.T) {
	tokens := scanTokens(t, "!!int 3\n")
	require.Equal(t, TAG_TOKEN, tokens[1].Type)
	assert.Equal(t, "!!", tokens[1].Value)
	assert.Equal(t, "int", tokens[1].Suffix)

	tokens = scanTokens(t, "!local 3\n")
	require.Equal(t, TAG_TOKEN, tokens[1].Type)
	assert.Equal(t, "!", tokens[1].Value)
	assert.Equal(t, "local", tokens[1].Suffix)

	tokens = scanTokens(t, "!<tag:example.com,2000:x> 3\n")
	require.Equal(t, TAG_TOKEN, tokens[1].Type)
	assert.Equal(t, "", tokens[1].Value)
	assert.Equal(t, "tag:example.com,2000:x", tokens[1].Suffix)

	// A lone "!" is the non-specific tag.
	tokens = scanTokens(t, "! 3\n")
	require.Equal(t, TAG_TOKEN, tokens[1].Type)
	assert.Equal(t, "", tokens[1].Value)
	assert.Equal(t, "!", tokens[1].Suffix)
}

func TestScannerVersionDirectiveToken(t *testing.T) {
	tokens := scanTokens(t, "%YAML 1.1\n--- a\n")
	require.Equal(t, VERSION_DIRECTIVE_TOKEN, tokens[1].Type)
	assert.Equal(t, 1, tokens[1].Major)
	assert.Equal(t, 1, tokens[1].Minor)
}

func TestScannerMarks(t *testing.T) {
	tokens := scanTokens(t, "a: 1\nb: 2\n")
	// tokens: STREAM-START, BLOCK-MAPPING-START, KEY, "a", VALUE, "1",
	// KEY, "b", VALUE, "2", BLOCK-END, STREAM-END
	require.Len(t, tokens, 12)
	assert.Equal(t, Mark{Index: 0, Line: 0, Column: 0}, tokens[3].StartMark)
	assert.Equal(t, Mark{Index: 1, Line: 0, Column: 1}, tokens[3].EndMark)
	assert.Equal(t, Mark{Index: 3, Line: 0, Column: 3}, tokens[5].StartMark)
	assert.Equal(t, 1, tokens[7].StartMark.Line)
	assert.Equal(t, 0, tokens[7].StartMark.Column)
}

func scanExpectError(input string) error {
	scanner := NewScannerBytes([]byte(input))
	for {
		token, err := scanner.Peek()
		if err != nil {
			return err
		}
		if token.Type == STREAM_END_TOKEN {
			return nil
		}
		scanner.Skip()
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		problem string
	}{
		{
			name:    "simple key longer than 1024 characters",
			input:   "a: 1\n" + strings.Repeat("k", 1100) + ": v\n",
			problem: "could not find expected ':'",
		},
		{
			name:    "overlong key at document root",
			input:   strings.Repeat("k", 1100) + ": v\n",
			problem: "mapping values are not allowed in this context",
		},
		{
			name:    "value after multiline plain scalar",
			input:   "a\nb: c\n",
			problem: "mapping values are not allowed in this context",
		},
		{
			name:    "unclosed single quoted scalar",
			input:   "'abc\n",
			problem: "found unexpected end of stream",
		},
		{
			name:    "document marker inside quoted scalar",
			input:   "'abc\n---\n",
			problem: "found unexpected document indicator",
		},
		{
			name:    "unknown escape",
			input:   `"a\q"` + "\n",
			problem: "found unknown escape character",
		},
		{
			name:    "invalid unicode escape",
			input:   `"\uD800"` + "\n",
			problem: "found invalid Unicode character escape code",
		},
		{
			name:    "unknown directive",
			input:   "%FOO bar\n--- a\n",
			problem: "found unknown directive name",
		},
		{
			name:    "zero indentation indicator",
			input:   "|0\n a\n",
			problem: "found an indentation indicator equal to 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scanExpectError(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.problem)
			var scanErr ScannerError
			assert.ErrorAs(t, err, &scanErr)
		})
	}
}

func TestScannerErrorIsSticky(t *testing.T) {
	scanner := NewScannerBytes([]byte(`"a\q"` + "\n"))
	var err error
	for {
		var token *Token
		token, err = scanner.Peek()
		if err != nil {
			break
		}
		require.NotEqual(t, STREAM_END_TOKEN, token.Type)
		scanner.Skip()
	}
	_, again := scanner.Peek()
	assert.Equal(t, err, again)
}

func TestScannerSimpleKeyAcrossManyTokens(t *testing.T) {
	// A long flow sequence as a key exercises retroactive KEY insertion
	// across a growing token queue.
	input := "[" + strings.Repeat("a, ", 50) + "a]: v\n"
	tokens := scanTokens(t, input)
	assert.Equal(t, BLOCK_MAPPING_START_TOKEN, tokens[1].Type)
	assert.Equal(t, KEY_TOKEN, tokens[2].Type)
	assert.Equal(t, FLOW_SEQUENCE_START_TOKEN, tokens[3].Type)
}
