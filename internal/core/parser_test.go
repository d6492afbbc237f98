// SPDX-License-Identifier: Apache-2.0

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseEvents runs the parser to completion, checks the stream against the
// event grammar, and renders each event in the compact test-suite notation.
func parseEvents(t *testing.T, input string) []string {
	t.Helper()
	parser := NewParserBytes([]byte(input))
	var events []Event
	for !parser.Done() {
		var event Event
		require.NoError(t, parser.Parse(&event))
		events = append(events, event)
	}
	assertEventGrammar(t, events)
	out := make([]string, len(events))
	for i := range events {
		out[i] = FormatEvent(&events[i])
	}
	return out
}

// assertEventGrammar walks a finished event stream and checks it is a
// derivation of the event grammar: STREAM-START document* STREAM-END, each
// document holding exactly one node, every collection start matched by its
// end, and mappings holding whole key/value pairs.
func assertEventGrammar(t *testing.T, events []Event) {
	t.Helper()
	require.NotEmpty(t, events)
	require.Equal(t, STREAM_START_EVENT, events[0].Type)
	require.Equal(t, STREAM_END_EVENT, events[len(events)-1].Type)

	var stack []EventType
	nodes := []int{0} // Nodes completed per open construct.
	for _, event := range events[1 : len(events)-1] {
		switch event.Type {
		case DOCUMENT_START_EVENT:
			require.Empty(t, stack, "document start inside another construct")
			stack = append(stack, DOCUMENT_START_EVENT)
			nodes = append(nodes, 0)
		case DOCUMENT_END_EVENT:
			require.NotEmpty(t, stack)
			require.Equal(t, DOCUMENT_START_EVENT, stack[len(stack)-1])
			require.Equal(t, 1, nodes[len(nodes)-1], "a document holds exactly one node")
			stack = stack[:len(stack)-1]
			nodes = nodes[:len(nodes)-1]
		case SEQUENCE_START_EVENT, MAPPING_START_EVENT:
			require.NotEmpty(t, stack, "node outside a document")
			stack = append(stack, event.Type)
			nodes = append(nodes, 0)
		case SEQUENCE_END_EVENT:
			require.NotEmpty(t, stack)
			require.Equal(t, SEQUENCE_START_EVENT, stack[len(stack)-1])
			stack = stack[:len(stack)-1]
			nodes = nodes[:len(nodes)-1]
			nodes[len(nodes)-1]++
		case MAPPING_END_EVENT:
			require.NotEmpty(t, stack)
			require.Equal(t, MAPPING_START_EVENT, stack[len(stack)-1])
			require.Zero(t, nodes[len(nodes)-1]%2, "a mapping holds whole key/value pairs")
			stack = stack[:len(stack)-1]
			nodes = nodes[:len(nodes)-1]
			nodes[len(nodes)-1]++
		case SCALAR_EVENT, ALIAS_EVENT:
			require.NotEmpty(t, stack, "node outside a document")
			nodes[len(nodes)-1]++
		default:
			t.Fatalf("event %v cannot appear between stream start and end", event.Type)
		}
	}
	require.Empty(t, stack, "unclosed construct at stream end")
}

func TestParserEventStreams(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		events []string
	}{
		{
			name:  "plain scalar document",
			input: "hello\n",
			events: []string{
				"+STR",
				"+DOC",
				"=VAL :hello",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "block mapping",
			input: "a: 1\nb: 2\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP",
				"=VAL :a",
				"=VAL :1",
				"=VAL :b",
				"=VAL :2",
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "block sequence",
			input: "- a\n- b\n",
			events: []string{
				"+STR",
				"+DOC",
				"+SEQ",
				"=VAL :a",
				"=VAL :b",
				"-SEQ",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "indentless sequence under mapping key",
			input: "key:\n- a\n- b\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP",
				"=VAL :key",
				"+SEQ",
				"=VAL :a",
				"=VAL :b",
				"-SEQ",
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "flow sequence",
			input: "[a, b]\n",
			events: []string{
				"+STR",
				"+DOC",
				"+SEQ []",
				"=VAL :a",
				"=VAL :b",
				"-SEQ",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "flow mapping with missing value",
			input: "{one: two, three}\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP {}",
				"=VAL :one",
				"=VAL :two",
				"=VAL :three",
				"=VAL :",
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "single-pair mapping inside flow sequence",
			input: "[a: 1]\n",
			events: []string{
				"+STR",
				"+DOC",
				"+SEQ []",
				"+MAP {}",
				"=VAL :a",
				"=VAL :1",
				"-MAP",
				"-SEQ",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "explicit document markers",
			input: "--- a\n...\n",
			events: []string{
				"+STR",
				"+DOC ---",
				"=VAL :a",
				"-DOC ...",
				"-STR",
			},
		},
		{
			name:  "multiple documents",
			input: "a\n---\nb\n",
			events: []string{
				"+STR",
				"+DOC",
				"=VAL :a",
				"-DOC",
				"+DOC ---",
				"=VAL :b",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "anchor and alias",
			input: "a: &x 1\nb: *x\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP",
				"=VAL :a",
				"=VAL &x :1",
				"=VAL :b",
				"=ALI *x",
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "standard tag shorthand",
			input: "!!str 5\n",
			events: []string{
				"+STR",
				"+DOC",
				"=VAL <tag:yaml.org,2002:str> :5",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "tag directive expansion",
			input: "%TAG !e! tag:example.com,2000:\n---\n!e!widget spin\n",
			events: []string{
				"+STR",
				"+DOC ---",
				"=VAL <tag:example.com,2000:widget> :spin",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "verbatim tag",
			input: "!<tag:example.com,2000:app> x\n",
			events: []string{
				"+STR",
				"+DOC",
				"=VAL <tag:example.com,2000:app> :x",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "quoted scalars",
			input: "- 'single'\n- \"double\"\n",
			events: []string{
				"+STR",
				"+DOC",
				"+SEQ",
				"=VAL 'single",
				`=VAL "double`,
				"-SEQ",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "block scalars",
			input: "a: |\n  lit\nb: >\n  fold\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP",
				"=VAL :a",
				`=VAL |lit\n`,
				"=VAL :b",
				`=VAL >fold\n`,
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "empty explicit document",
			input: "---\n",
			events: []string{
				"+STR",
				"+DOC ---",
				"=VAL :",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "explicit key with empty value",
			input: "? key\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP",
				"=VAL :key",
				"=VAL :",
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "nested block collections",
			input: "top:\n  inner:\n    - 1\n",
			events: []string{
				"+STR",
				"+DOC",
				"+MAP",
				"=VAL :top",
				"+MAP",
				"=VAL :inner",
				"+SEQ",
				"=VAL :1",
				"-SEQ",
				"-MAP",
				"-MAP",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "version directive",
			input: "%YAML 1.1\n--- a\n",
			events: []string{
				"+STR",
				"+DOC ---",
				"=VAL :a",
				"-DOC",
				"-STR",
			},
		},
		{
			name:  "empty stream",
			input: "",
			events: []string{
				"+STR",
				"-STR",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.events, parseEvents(t, tt.input))
		})
	}
}

func parseAllExpectError(input string) error {
	parser := NewParserBytes([]byte(input))
	for !parser.Done() {
		var event Event
		if err := parser.Parse(&event); err != nil {
			return err
		}
	}
	return nil
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		problem string
	}{
		{
			name:    "version 1.2 rejected",
			input:   "%YAML 1.2\n--- a\n",
			problem: "found incompatible YAML document",
		},
		{
			name:    "version 2.0 rejected",
			input:   "%YAML 2.0\n--- a\n",
			problem: "found incompatible YAML document",
		},
		{
			name:    "duplicate %YAML directive",
			input:   "%YAML 1.1\n%YAML 1.1\n--- a\n",
			problem: "found duplicate %YAML directive",
		},
		{
			name:    "duplicate %TAG directive",
			input:   "%TAG !a! tag:x:\n%TAG !a! tag:y:\n--- a\n",
			problem: "found duplicate %TAG directive",
		},
		{
			name:    "undefined tag handle",
			input:   "!e!widget spin\n",
			problem: "found undefined tag handle",
		},
		{
			name:    "content after flow sequence item",
			input:   "['a' 'b']\n",
			problem: "did not find expected ',' or ']'",
		},
		{
			name:    "content after flow mapping entry",
			input:   "{'a': 'b' 'c'}\n",
			problem: "did not find expected ',' or '}'",
		},
		{
			name:    "second document without marker",
			input:   "[a]\nb\n",
			problem: "did not find expected <document start>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseAllExpectError(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestParserErrorIsSticky(t *testing.T) {
	parser := NewParserBytes([]byte("%YAML 1.2\n--- a\n"))
	var event Event
	first := parser.Parse(&event) // STREAM-START is fine
	require.NoError(t, first)
	err := parser.Parse(&event)
	require.Error(t, err)
	again := parser.Parse(&event)
	assert.Equal(t, err, again)
}

func TestParserMarks(t *testing.T) {
	parser := NewParserBytes([]byte("a: 1\n"))
	var event Event
	require.NoError(t, parser.Parse(&event)) // +STR
	require.NoError(t, parser.Parse(&event)) // +DOC
	require.NoError(t, parser.Parse(&event)) // +MAP
	require.NoError(t, parser.Parse(&event)) // key "a"
	assert.Equal(t, 0, event.StartMark.Line)
	assert.Equal(t, 0, event.StartMark.Column)
	require.NoError(t, parser.Parse(&event)) // value "1"
	assert.Equal(t, 0, event.StartMark.Line)
	assert.Equal(t, 3, event.StartMark.Column)
}

func TestParserLongStream(t *testing.T) {
	// Many keys exercise the token queue compaction and the simple key
	// bookkeeping across lines.
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("key")
		b.WriteByte(byte('a' + i%26))
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(": value\n")
	}
	parser := NewParserBytes([]byte(b.String()))
	count := 0
	for !parser.Done() {
		var event Event
		require.NoError(t, parser.Parse(&event))
		count++
	}
	// 2 stream + 2 document + 2 mapping + 2 scalars per entry.
	assert.Equal(t, 6+2*500, count)
}

func TestParserScalarStyles(t *testing.T) {
	// The style recorded by the scanner must reach the scalar event intact.
	tests := []struct {
		name  string
		input string
		style ScalarStyle
	}{
		{"plain", "a\n", PLAIN_SCALAR_STYLE},
		{"single quoted", "'a'\n", SINGLE_QUOTED_SCALAR_STYLE},
		{"double quoted", "\"a\"\n", DOUBLE_QUOTED_SCALAR_STYLE},
		{"literal", "|\n  a\n", LITERAL_SCALAR_STYLE},
		{"folded", ">\n  a\n", FOLDED_SCALAR_STYLE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := NewScannerBytes([]byte(tt.input))
			var scalar Token
			for {
				token, err := scanner.Peek()
				require.NoError(t, err)
				if token.Type == SCALAR_TOKEN {
					scalar = *token
				}
				if token.Type == STREAM_END_TOKEN {
					break
				}
				scanner.Skip()
			}
			require.Equal(t, SCALAR_TOKEN, scalar.Type)
			assert.Equal(t, tt.style, scalar.ScalarStyle())

			parser := NewParserBytes([]byte(tt.input))
			var event Event
			for event.Type != SCALAR_EVENT {
				require.NoError(t, parser.Parse(&event))
			}
			assert.Equal(t, tt.style, event.ScalarStyle())
		})
	}
}
