// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// Scanner stage: turns the decoded character stream into a queue of tokens.
//
// The scanner is the only stage aware of indentation. It maintains a stack
// of block indentation levels and emits synthetic BLOCK-SEQUENCE-START,
// BLOCK-MAPPING-START and BLOCK-END tokens as the indentation grows and
// shrinks. It also tracks potential simple keys (plain `key: value` keys
// given without an explicit '?') and retroactively inserts a KEY token in
// front of a saved candidate when a ':' shows up. A simple key candidate
// expires once the scanner moves to the next line or more than 1024
// characters past the candidate's start.

package core

import "io"

// A candidate position where a KEY token may need to be inserted later.
type simpleKey struct {
	possible    bool
	required    bool // A key at this position cannot be dropped silently.
	tokenNumber int  // Absolute number of the token to insert KEY before.
	mark        Mark
}

// Scanner produces the token stream for a single character stream.
type Scanner struct {
	reader *reader

	tokens       []Token // Queue of produced tokens; tokens[head:] pending.
	tokensHead   int
	tokensParsed int // Total tokens handed out via Skip.
	available    bool

	streamStartProduced bool
	streamEndProduced   bool

	indent  int   // Current block indentation column, -1 at stream level.
	indents []int // Enclosing block indentation columns.

	flowLevel int

	simpleKeyAllowed bool
	simpleKeys       []simpleKey // One per flow level plus the block level.

	err error
}

// NewScanner reads the character stream from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: newReaderIO(r)}
}

// NewScannerBytes scans an in-memory document.
func NewScannerBytes(input []byte) *Scanner {
	return &Scanner{reader: newReaderBytes(input)}
}

// Peek returns the next token without consuming it. Repeated calls return
// the same token until Skip is called. After STREAM-END has been returned,
// Peek keeps returning it.
func (s *Scanner) Peek() (*Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.available {
		if err := s.fetchMoreTokens(); err != nil {
			s.err = err
			return nil, err
		}
	}
	return &s.tokens[s.tokensHead], nil
}

// Skip consumes the token most recently returned by Peek.
func (s *Scanner) Skip() {
	if s.tokensHead == len(s.tokens) {
		return
	}
	s.available = false
	s.tokensParsed++
	if s.tokens[s.tokensHead].Type == STREAM_END_TOKEN {
		s.streamEndProduced = true
	}
	s.tokensHead++
}

func scannerError(context string, contextMark Mark, problem string, problemMark Mark) error {
	return ScannerError{
		ContextMark:    contextMark,
		ContextMessage: context,
		Mark:           problemMark,
		Message:        problem,
	}
}

// Character class predicates. The zero rune marks the end of input.

func isAlpha(c rune) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_' || c == '-'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func asDigit(c rune) int {
	return int(c - '0')
}

func isHex(c rune) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'F' || c >= 'a' && c <= 'f'
}

func asHex(c rune) int {
	switch {
	case c >= 'a':
		return int(c-'a') + 10
	case c >= 'A':
		return int(c-'A') + 10
	}
	return int(c - '0')
}

func isBlank(c rune) bool {
	return c == ' ' || c == '\t'
}

func isBreak(c rune) bool {
	return c == '\r' || c == '\n' || c == 0x85 || c == 0x2028 || c == 0x2029
}

func isBreakZ(c rune) bool {
	return isBreak(c) || c == 0
}

func isBlankZ(c rune) bool {
	return isBlank(c) || isBreakZ(c)
}

func isBOM(c rune) bool {
	return c == 0xFEFF
}

// enqueue appends a token to the queue, compacting the consumed prefix when
// it dominates the slice.
func (s *Scanner) enqueue(token Token) {
	if s.tokensHead > 0 && len(s.tokens) == cap(s.tokens) {
		s.tokens = s.tokens[:copy(s.tokens, s.tokens[s.tokensHead:])]
		s.tokensHead = 0
	}
	s.tokens = append(s.tokens, token)
}

// insert places a token at the given token number (relative to the tokens
// already handed out), shifting later tokens.
func (s *Scanner) insert(number int, token Token) {
	rel := number - s.tokensParsed
	s.enqueue(token)
	pos := s.tokensHead + rel
	if pos < len(s.tokens)-1 {
		copy(s.tokens[pos+1:], s.tokens[pos:])
		s.tokens[pos] = token
	}
}

// fetchMoreTokens produces tokens until the head token is definite, i.e. no
// unresolved simple key candidate could still insert a KEY in front of it.
func (s *Scanner) fetchMoreTokens() error {
	for {
		needMore := s.tokensHead == len(s.tokens)
		if !needMore {
			if err := s.staleSimpleKeys(); err != nil {
				return err
			}
			for i := range s.simpleKeys {
				sk := &s.simpleKeys[i]
				if sk.possible && sk.tokenNumber == s.tokensParsed {
					needMore = true
					break
				}
			}
		}
		if !needMore {
			break
		}
		if err := s.fetchNextToken(); err != nil {
			return err
		}
	}
	s.available = true
	return nil
}

// staleSimpleKeys drops candidates that can no longer become keys: the
// scanner has moved to the next line or more than 1024 characters ahead.
func (s *Scanner) staleSimpleKeys() error {
	for i := range s.simpleKeys {
		sk := &s.simpleKeys[i]
		if !sk.possible {
			continue
		}
		if sk.mark.Line < s.reader.mark.Line || sk.mark.Index+1024 < s.reader.mark.Index {
			if sk.required {
				return scannerError("while scanning a simple key", sk.mark,
					"could not find expected ':'", s.reader.mark)
			}
			sk.possible = false
		}
	}
	return nil
}

// saveSimpleKey records the current position as a simple key candidate if
// one is allowed here.
func (s *Scanner) saveSimpleKey() error {
	// A key is required when it sits exactly at the block indentation
	// column: failing to find the ':' is then an error, not a plain scalar.
	required := s.flowLevel == 0 && s.indent == s.reader.mark.Column

	if !s.simpleKeyAllowed {
		return nil
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeys[len(s.simpleKeys)-1] = simpleKey{
		possible:    true,
		required:    required,
		tokenNumber: s.tokensParsed + (len(s.tokens) - s.tokensHead),
		mark:        s.reader.mark,
	}
	return nil
}

// removeSimpleKey clears the candidate at the current level.
func (s *Scanner) removeSimpleKey() error {
	i := len(s.simpleKeys) - 1
	if s.simpleKeys[i].possible && s.simpleKeys[i].required {
		return scannerError("while scanning a simple key", s.simpleKeys[i].mark,
			"could not find expected ':'", s.reader.mark)
	}
	s.simpleKeys[i].possible = false
	return nil
}

func (s *Scanner) increaseFlowLevel() {
	s.simpleKeys = append(s.simpleKeys, simpleKey{})
	s.flowLevel++
}

func (s *Scanner) decreaseFlowLevel() {
	if s.flowLevel > 0 {
		s.flowLevel--
		s.simpleKeys = s.simpleKeys[:len(s.simpleKeys)-1]
	}
}

// rollIndent pushes the indentation level and produces a block collection
// start token. When number is non-negative the token is inserted at that
// absolute position instead of appended, which is how a mapping start lands
// before an already-emitted simple key.
func (s *Scanner) rollIndent(column, number int, typ TokenType, mark Mark) {
	if s.flowLevel > 0 {
		return
	}
	if s.indent < column {
		s.indents = append(s.indents, s.indent)
		s.indent = column
		token := Token{Type: typ, StartMark: mark, EndMark: mark}
		if number > -1 {
			s.insert(number, token)
		} else {
			s.enqueue(token)
		}
	}
}

// unrollIndent pops indentation levels above the column, producing a
// BLOCK-END for each.
func (s *Scanner) unrollIndent(column int) {
	if s.flowLevel > 0 {
		return
	}
	for s.indent > column {
		s.enqueue(Token{
			Type:      BLOCK_END_TOKEN,
			StartMark: s.reader.mark,
			EndMark:   s.reader.mark,
		})
		s.indent = s.indents[len(s.indents)-1]
		s.indents = s.indents[:len(s.indents)-1]
	}
}

func (s *Scanner) fetchStreamStart() error {
	s.indent = -1
	s.simpleKeys = append(s.simpleKeys, simpleKey{})
	s.simpleKeyAllowed = true
	s.streamStartProduced = true

	if err := s.reader.cache(1); err != nil {
		return err
	}
	s.enqueue(Token{
		Type:      STREAM_START_TOKEN,
		StartMark: s.reader.mark,
		EndMark:   s.reader.mark,
		Encoding:  s.reader.encoding,
	})
	return nil
}

func (s *Scanner) fetchStreamEnd() error {
	// The stream end forces a final line break position.
	if s.reader.mark.Column != 0 {
		s.reader.mark.Column = 0
		s.reader.mark.Line++
	}
	s.unrollIndent(-1)
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	s.enqueue(Token{
		Type:      STREAM_END_TOKEN,
		StartMark: s.reader.mark,
		EndMark:   s.reader.mark,
	})
	return nil
}

func (s *Scanner) fetchDirective() error {
	s.unrollIndent(-1)
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	token, err := s.scanDirective()
	if err != nil {
		return err
	}
	s.enqueue(token)
	return nil
}

func (s *Scanner) fetchDocumentIndicator(typ TokenType) error {
	s.unrollIndent(-1)
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	startMark := s.reader.mark
	s.reader.skip()
	s.reader.skip()
	s.reader.skip()
	s.enqueue(Token{Type: typ, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchFlowCollectionStart(typ TokenType) error {
	// '[' and '{' may themselves start a simple key, e.g. `[1]: ok`.
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.increaseFlowLevel()
	s.simpleKeyAllowed = true

	startMark := s.reader.mark
	s.reader.skip()
	s.enqueue(Token{Type: typ, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchFlowCollectionEnd(typ TokenType) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.decreaseFlowLevel()
	s.simpleKeyAllowed = false

	startMark := s.reader.mark
	s.reader.skip()
	s.enqueue(Token{Type: typ, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchFlowEntry() error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true

	startMark := s.reader.mark
	s.reader.skip()
	s.enqueue(Token{Type: FLOW_ENTRY_TOKEN, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchBlockEntry() error {
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return scannerError("", Mark{},
				"block sequence entries are not allowed in this context", s.reader.mark)
		}
		s.rollIndent(s.reader.mark.Column, -1, BLOCK_SEQUENCE_START_TOKEN, s.reader.mark)
	}
	// In flow context a lone '-' is scanned as part of a plain scalar, so
	// reaching here with flowLevel > 0 cannot happen.
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true

	startMark := s.reader.mark
	s.reader.skip()
	s.enqueue(Token{Type: BLOCK_ENTRY_TOKEN, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchKey() error {
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return scannerError("", Mark{},
				"mapping keys are not allowed in this context", s.reader.mark)
		}
		s.rollIndent(s.reader.mark.Column, -1, BLOCK_MAPPING_START_TOKEN, s.reader.mark)
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = s.flowLevel == 0

	startMark := s.reader.mark
	s.reader.skip()
	s.enqueue(Token{Type: KEY_TOKEN, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchValue() error {
	sk := &s.simpleKeys[len(s.simpleKeys)-1]
	if sk.possible {
		// A saved candidate turns into a key: insert KEY where the
		// candidate started and open a block mapping if needed.
		s.insert(sk.tokenNumber, Token{
			Type:      KEY_TOKEN,
			StartMark: sk.mark,
			EndMark:   sk.mark,
		})
		s.rollIndent(sk.mark.Column, sk.tokenNumber, BLOCK_MAPPING_START_TOKEN, sk.mark)
		sk.possible = false
		s.simpleKeyAllowed = false
	} else {
		// The ':' stands without a preceding simple key.
		if s.flowLevel == 0 {
			if !s.simpleKeyAllowed {
				return scannerError("", Mark{},
					"mapping values are not allowed in this context", s.reader.mark)
			}
			s.rollIndent(s.reader.mark.Column, -1, BLOCK_MAPPING_START_TOKEN, s.reader.mark)
		}
		s.simpleKeyAllowed = s.flowLevel == 0
	}

	startMark := s.reader.mark
	s.reader.skip()
	s.enqueue(Token{Type: VALUE_TOKEN, StartMark: startMark, EndMark: s.reader.mark})
	return nil
}

func (s *Scanner) fetchAnchor(typ TokenType) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	token, err := s.scanAnchor(typ)
	if err != nil {
		return err
	}
	s.enqueue(token)
	return nil
}

func (s *Scanner) fetchTag() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	token, err := s.scanTag()
	if err != nil {
		return err
	}
	s.enqueue(token)
	return nil
}

func (s *Scanner) fetchBlockScalar(literal bool) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	// A block scalar line may be followed by further block nodes.
	s.simpleKeyAllowed = true

	token, err := s.scanBlockScalar(literal)
	if err != nil {
		return err
	}
	s.enqueue(token)
	return nil
}

func (s *Scanner) fetchFlowScalar(single bool) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	token, err := s.scanFlowScalar(single)
	if err != nil {
		return err
	}
	s.enqueue(token)
	return nil
}

func (s *Scanner) fetchPlainScalar() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	token, err := s.scanPlainScalar()
	if err != nil {
		return err
	}
	s.enqueue(token)
	return nil
}

// fetchNextToken scans one more token (possibly with synthetic companions)
// into the queue.
func (s *Scanner) fetchNextToken() error {
	if !s.streamStartProduced {
		return s.fetchStreamStart()
	}

	if err := s.scanToNextToken(); err != nil {
		return err
	}
	if err := s.staleSimpleKeys(); err != nil {
		return err
	}

	s.unrollIndent(s.reader.mark.Column)

	if err := s.reader.cache(4); err != nil {
		return err
	}

	c := s.reader.peek(0)
	if c == 0 {
		return s.fetchStreamEnd()
	}

	if s.reader.mark.Column == 0 {
		switch {
		case c == '%':
			return s.fetchDirective()
		case c == '-' && s.reader.peek(1) == '-' && s.reader.peek(2) == '-' && isBlankZ(s.reader.peek(3)):
			return s.fetchDocumentIndicator(DOCUMENT_START_TOKEN)
		case c == '.' && s.reader.peek(1) == '.' && s.reader.peek(2) == '.' && isBlankZ(s.reader.peek(3)):
			return s.fetchDocumentIndicator(DOCUMENT_END_TOKEN)
		}
	}

	switch {
	case c == '[':
		return s.fetchFlowCollectionStart(FLOW_SEQUENCE_START_TOKEN)
	case c == '{':
		return s.fetchFlowCollectionStart(FLOW_MAPPING_START_TOKEN)
	case c == ']':
		return s.fetchFlowCollectionEnd(FLOW_SEQUENCE_END_TOKEN)
	case c == '}':
		return s.fetchFlowCollectionEnd(FLOW_MAPPING_END_TOKEN)
	case c == ',':
		return s.fetchFlowEntry()
	case c == '-' && isBlankZ(s.reader.peek(1)):
		return s.fetchBlockEntry()
	case c == '?' && (s.flowLevel > 0 || isBlankZ(s.reader.peek(1))):
		return s.fetchKey()
	case c == ':' && (s.flowLevel > 0 || isBlankZ(s.reader.peek(1))):
		return s.fetchValue()
	case c == '*':
		return s.fetchAnchor(ALIAS_TOKEN)
	case c == '&':
		return s.fetchAnchor(ANCHOR_TOKEN)
	case c == '!':
		return s.fetchTag()
	case c == '|' && s.flowLevel == 0:
		return s.fetchBlockScalar(true)
	case c == '>' && s.flowLevel == 0:
		return s.fetchBlockScalar(false)
	case c == '\'':
		return s.fetchFlowScalar(true)
	case c == '"':
		return s.fetchFlowScalar(false)
	}

	// Anything left starts a plain scalar: a non-indicator character, or
	// '-', '?', ':' followed directly by a non-space character.
	isIndicator := func(c rune) bool {
		switch c {
		case '-', '?', ':', ',', '[', ']', '{', '}', '#', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`':
			return true
		}
		return false
	}
	switch {
	case !isBlankZ(c) && !isIndicator(c):
		return s.fetchPlainScalar()
	case c == '-' && !isBlankZ(s.reader.peek(1)):
		return s.fetchPlainScalar()
	case (c == '?' || c == ':') && s.flowLevel == 0 && !isBlankZ(s.reader.peek(1)):
		return s.fetchPlainScalar()
	}

	return scannerError("while scanning for the next token", Mark{},
		"found character that cannot start any token", s.reader.mark)
}

// scanToNextToken moves past whitespace, comments and, in block context,
// line breaks, to the start of the next token.
func (s *Scanner) scanToNextToken() error {
	for {
		if err := s.reader.cache(1); err != nil {
			return err
		}

		// A BOM may reappear at the start of a line; ignore it.
		if s.reader.mark.Column == 0 && isBOM(s.reader.peek(0)) {
			s.reader.skip()
		}

		// Tabs may separate tokens only where a simple key cannot start.
		for s.reader.peek(0) == ' ' ||
			(s.reader.peek(0) == '\t' && (s.flowLevel > 0 || !s.simpleKeyAllowed)) {
			s.reader.skip()
			if err := s.reader.cache(1); err != nil {
				return err
			}
		}

		if s.reader.peek(0) == '#' {
			for !isBreakZ(s.reader.peek(0)) {
				s.reader.skip()
				if err := s.reader.cache(1); err != nil {
					return err
				}
			}
		}

		if !isBreak(s.reader.peek(0)) {
			break
		}
		if err := s.reader.cache(2); err != nil {
			return err
		}
		s.reader.skipBreak()

		// A line break in block context allows a new simple key.
		if s.flowLevel == 0 {
			s.simpleKeyAllowed = true
		}
	}
	return nil
}

// scanDirective scans a %YAML or %TAG line.
func (s *Scanner) scanDirective() (Token, error) {
	startMark := s.reader.mark
	s.reader.skip() // '%'

	name, err := s.scanDirectiveName(startMark)
	if err != nil {
		return Token{}, err
	}

	var token Token
	switch name {
	case "YAML":
		major, minor, err := s.scanVersionDirectiveValue(startMark)
		if err != nil {
			return Token{}, err
		}
		token = Token{
			Type:      VERSION_DIRECTIVE_TOKEN,
			StartMark: startMark,
			EndMark:   s.reader.mark,
			Major:     major,
			Minor:     minor,
		}
	case "TAG":
		handle, prefix, err := s.scanTagDirectiveValue(startMark)
		if err != nil {
			return Token{}, err
		}
		token = Token{
			Type:      TAG_DIRECTIVE_TOKEN,
			StartMark: startMark,
			EndMark:   s.reader.mark,
			Value:     handle,
			Prefix:    prefix,
		}
	default:
		return Token{}, scannerError("while scanning a directive", startMark,
			"found unknown directive name", s.reader.mark)
	}

	// Only whitespace and a comment may follow.
	if err := s.reader.cache(1); err != nil {
		return Token{}, err
	}
	for isBlank(s.reader.peek(0)) {
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
	}
	if s.reader.peek(0) == '#' {
		for !isBreakZ(s.reader.peek(0)) {
			s.reader.skip()
			if err := s.reader.cache(1); err != nil {
				return Token{}, err
			}
		}
	}
	if !isBreakZ(s.reader.peek(0)) {
		return Token{}, scannerError("while scanning a directive", startMark,
			"did not find expected comment or line break", s.reader.mark)
	}
	if isBreak(s.reader.peek(0)) {
		if err := s.reader.cache(2); err != nil {
			return Token{}, err
		}
		s.reader.skipBreak()
	}
	return token, nil
}

func (s *Scanner) scanDirectiveName(startMark Mark) (string, error) {
	if err := s.reader.cache(1); err != nil {
		return "", err
	}
	var name []rune
	for isAlpha(s.reader.peek(0)) {
		name = append(name, s.reader.peek(0))
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return "", err
		}
	}
	if len(name) == 0 {
		return "", scannerError("while scanning a directive", startMark,
			"could not find expected directive name", s.reader.mark)
	}
	if !isBlankZ(s.reader.peek(0)) {
		return "", scannerError("while scanning a directive", startMark,
			"found unexpected non-alphabetical character", s.reader.mark)
	}
	return string(name), nil
}

func (s *Scanner) scanVersionDirectiveValue(startMark Mark) (major, minor int, err error) {
	if err := s.reader.cache(1); err != nil {
		return 0, 0, err
	}
	for isBlank(s.reader.peek(0)) {
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return 0, 0, err
		}
	}
	major, err = s.scanVersionDirectiveNumber(startMark)
	if err != nil {
		return 0, 0, err
	}
	if s.reader.peek(0) != '.' {
		return 0, 0, scannerError("while scanning a %YAML directive", startMark,
			"did not find expected digit or '.' character", s.reader.mark)
	}
	s.reader.skip()
	minor, err = s.scanVersionDirectiveNumber(startMark)
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}

const maxVersionNumberLength = 9

func (s *Scanner) scanVersionDirectiveNumber(startMark Mark) (int, error) {
	if err := s.reader.cache(1); err != nil {
		return 0, err
	}
	value, length := 0, 0
	for isDigit(s.reader.peek(0)) {
		length++
		if length > maxVersionNumberLength {
			return 0, scannerError("while scanning a %YAML directive", startMark,
				"found extremely long version number", s.reader.mark)
		}
		value = value*10 + asDigit(s.reader.peek(0))
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return 0, err
		}
	}
	if length == 0 {
		return 0, scannerError("while scanning a %YAML directive", startMark,
			"did not find expected version number", s.reader.mark)
	}
	return value, nil
}

func (s *Scanner) scanTagDirectiveValue(startMark Mark) (handle, prefix string, err error) {
	if err := s.reader.cache(1); err != nil {
		return "", "", err
	}
	for isBlank(s.reader.peek(0)) {
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return "", "", err
		}
	}
	handle, err = s.scanTagHandle(true, startMark)
	if err != nil {
		return "", "", err
	}
	if err := s.reader.cache(1); err != nil {
		return "", "", err
	}
	if !isBlank(s.reader.peek(0)) {
		return "", "", scannerError("while scanning a %TAG directive", startMark,
			"did not find expected whitespace", s.reader.mark)
	}
	for isBlank(s.reader.peek(0)) {
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return "", "", err
		}
	}
	prefix, err = s.scanTagURI(true, "", startMark)
	if err != nil {
		return "", "", err
	}
	if err := s.reader.cache(1); err != nil {
		return "", "", err
	}
	if !isBlankZ(s.reader.peek(0)) {
		return "", "", scannerError("while scanning a %TAG directive", startMark,
			"did not find expected whitespace or line break", s.reader.mark)
	}
	return handle, prefix, nil
}

func (s *Scanner) scanAnchor(typ TokenType) (Token, error) {
	startMark := s.reader.mark
	s.reader.skip() // '&' or '*'

	if err := s.reader.cache(1); err != nil {
		return Token{}, err
	}
	var name []rune
	for isAlpha(s.reader.peek(0)) {
		name = append(name, s.reader.peek(0))
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
	}

	c := s.reader.peek(0)
	if len(name) == 0 || !(isBlankZ(c) || c == '?' || c == ':' || c == ',' ||
		c == ']' || c == '}' || c == '%' || c == '@' || c == '`') {
		context := "while scanning an anchor"
		if typ == ALIAS_TOKEN {
			context = "while scanning an alias"
		}
		return Token{}, scannerError(context, startMark,
			"did not find expected alphabetic or numeric character", s.reader.mark)
	}
	return Token{
		Type:      typ,
		StartMark: startMark,
		EndMark:   s.reader.mark,
		Value:     string(name),
	}, nil
}

// scanTag scans a tag property: verbatim (!<...>), shorthand (!handle!suffix,
// !suffix) or non-specific (!).
func (s *Scanner) scanTag() (Token, error) {
	startMark := s.reader.mark
	var handle, suffix string

	if err := s.reader.cache(2); err != nil {
		return Token{}, err
	}
	if s.reader.peek(1) == '<' {
		s.reader.skip()
		s.reader.skip()
		var err error
		suffix, err = s.scanTagURI(false, "", startMark)
		if err != nil {
			return Token{}, err
		}
		if s.reader.peek(0) != '>' {
			return Token{}, scannerError("while scanning a tag", startMark,
				"did not find the expected '>'", s.reader.mark)
		}
		s.reader.skip()
	} else {
		var err error
		handle, err = s.scanTagHandle(false, startMark)
		if err != nil {
			return Token{}, err
		}
		if len(handle) > 1 && handle[0] == '!' && handle[len(handle)-1] == '!' {
			suffix, err = s.scanTagURI(false, "", startMark)
			if err != nil {
				return Token{}, err
			}
		} else {
			suffix, err = s.scanTagURI(false, handle, startMark)
			if err != nil {
				return Token{}, err
			}
			handle = "!"
			// A lone '!' is the non-specific tag.
			if len(suffix) == 0 {
				handle, suffix = "", "!"
			}
		}
	}

	if err := s.reader.cache(1); err != nil {
		return Token{}, err
	}
	c := s.reader.peek(0)
	if !isBlankZ(c) && !(s.flowLevel > 0 && (c == ',' || c == ']' || c == '}')) {
		return Token{}, scannerError("while scanning a tag", startMark,
			"did not find expected whitespace or line break", s.reader.mark)
	}
	return Token{
		Type:      TAG_TOKEN,
		StartMark: startMark,
		EndMark:   s.reader.mark,
		Value:     handle,
		Suffix:    suffix,
	}, nil
}

func (s *Scanner) scanTagHandle(directive bool, startMark Mark) (string, error) {
	context := "while scanning a tag"
	if directive {
		context = "while scanning a tag directive"
	}
	if err := s.reader.cache(1); err != nil {
		return "", err
	}
	if s.reader.peek(0) != '!' {
		return "", scannerError(context, startMark,
			"did not find expected '!'", s.reader.mark)
	}
	handle := []rune{'!'}
	s.reader.skip()

	if err := s.reader.cache(1); err != nil {
		return "", err
	}
	for isAlpha(s.reader.peek(0)) {
		handle = append(handle, s.reader.peek(0))
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return "", err
		}
	}
	if s.reader.peek(0) == '!' {
		handle = append(handle, '!')
		s.reader.skip()
	} else if directive && string(handle) != "!" {
		// A %TAG handle is always closed: '!', '!!' or '!name!'.
		return "", scannerError(context, startMark,
			"did not find expected '!'", s.reader.mark)
	}
	return string(handle), nil
}

// scanTagURI scans the suffix of a shorthand tag, the body of a verbatim tag
// or the prefix of a %TAG directive. head is a scanned-ahead handle that
// turned out to be part of the suffix.
func (s *Scanner) scanTagURI(directive bool, head string, startMark Mark) (string, error) {
	context := "while parsing a tag"
	if directive {
		context = "while parsing a %TAG directive"
	}
	var uri []byte
	// The head already holds the leading '!'.
	if len(head) > 1 {
		uri = append(uri, head[1:]...)
	}

	if err := s.reader.cache(1); err != nil {
		return "", err
	}
	isURIChar := func(c rune) bool {
		if isAlpha(c) {
			return true
		}
		switch c {
		case ';', '/', '?', ':', '@', '&', '=', '+', '$', ',', '.', '!', '~',
			'*', '\'', '(', ')', '[', ']', '%':
			return true
		}
		return false
	}
	for isURIChar(s.reader.peek(0)) {
		if s.reader.peek(0) == '%' {
			var err error
			uri, err = s.scanURIEscapes(uri, context, startMark)
			if err != nil {
				return "", err
			}
		} else {
			uri = append(uri, string(s.reader.peek(0))...)
			s.reader.skip()
		}
		if err := s.reader.cache(1); err != nil {
			return "", err
		}
	}
	if len(uri) == 0 {
		return "", scannerError(context, startMark,
			"did not find expected tag URI", s.reader.mark)
	}
	return string(uri), nil
}

// scanURIEscapes decodes one %-escaped UTF-8 character sequence.
func (s *Scanner) scanURIEscapes(uri []byte, context string, startMark Mark) ([]byte, error) {
	width := 0
	for {
		if err := s.reader.cache(3); err != nil {
			return nil, err
		}
		if !(s.reader.peek(0) == '%' && isHex(s.reader.peek(1)) && isHex(s.reader.peek(2))) {
			return nil, scannerError(context, startMark,
				"did not find URI escaped octet", s.reader.mark)
		}
		octet := byte(asHex(s.reader.peek(1))<<4 + asHex(s.reader.peek(2)))
		if width == 0 {
			width = utf8Width(octet)
			if width == 0 {
				return nil, scannerError(context, startMark,
					"found an incorrect leading UTF-8 octet", s.reader.mark)
			}
		} else if octet&0xC0 != 0x80 {
			return nil, scannerError(context, startMark,
				"found an incorrect trailing UTF-8 octet", s.reader.mark)
		}
		uri = append(uri, octet)
		s.reader.skip()
		s.reader.skip()
		s.reader.skip()
		width--
		if width == 0 {
			return uri, nil
		}
	}
}

// scanBlockScalar scans a literal (|) or folded (>) block scalar, including
// the chomping and explicit indentation indicators in its header.
func (s *Scanner) scanBlockScalar(literal bool) (Token, error) {
	startMark := s.reader.mark
	s.reader.skip() // '|' or '>'

	// Chomping and indentation indicators may appear in either order.
	chomping, increment := 0, 0
	if err := s.reader.cache(1); err != nil {
		return Token{}, err
	}
	c := s.reader.peek(0)
	if c == '+' || c == '-' {
		if c == '+' {
			chomping = +1
		} else {
			chomping = -1
		}
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
		if isDigit(s.reader.peek(0)) {
			if s.reader.peek(0) == '0' {
				return Token{}, scannerError("while scanning a block scalar", startMark,
					"found an indentation indicator equal to 0", s.reader.mark)
			}
			increment = asDigit(s.reader.peek(0))
			s.reader.skip()
		}
	} else if isDigit(c) {
		if c == '0' {
			return Token{}, scannerError("while scanning a block scalar", startMark,
				"found an indentation indicator equal to 0", s.reader.mark)
		}
		increment = asDigit(c)
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
		c = s.reader.peek(0)
		if c == '+' || c == '-' {
			if c == '+' {
				chomping = +1
			} else {
				chomping = -1
			}
			s.reader.skip()
		}
	}

	// Only blanks and a comment may follow on the header line.
	if err := s.reader.cache(1); err != nil {
		return Token{}, err
	}
	for isBlank(s.reader.peek(0)) {
		s.reader.skip()
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
	}
	if s.reader.peek(0) == '#' {
		for !isBreakZ(s.reader.peek(0)) {
			s.reader.skip()
			if err := s.reader.cache(1); err != nil {
				return Token{}, err
			}
		}
	}
	if !isBreakZ(s.reader.peek(0)) {
		return Token{}, scannerError("while scanning a block scalar", startMark,
			"did not find expected comment or line break", s.reader.mark)
	}
	if isBreak(s.reader.peek(0)) {
		if err := s.reader.cache(2); err != nil {
			return Token{}, err
		}
		s.reader.skipBreak()
	}

	endMark := s.reader.mark

	indent := 0
	if increment > 0 {
		if s.indent >= 0 {
			indent = s.indent + increment
		} else {
			indent = increment
		}
	}

	var value, leadingBreak, trailingBreaks []rune
	var err error
	indent, trailingBreaks, endMark, err = s.scanBlockScalarBreaks(indent, trailingBreaks, startMark)
	if err != nil {
		return Token{}, err
	}

	if err := s.reader.cache(1); err != nil {
		return Token{}, err
	}
	leadingBlank, trailingBlank := false, false
	for s.reader.mark.Column == indent && s.reader.peek(0) != 0 {
		// Folding rules: a break between two non-empty, non-indented lines
		// of a folded scalar becomes a space; everything else is kept.
		trailingBlank = isBlank(s.reader.peek(0))
		if !literal && len(leadingBreak) > 0 && !leadingBlank && !trailingBlank {
			if len(trailingBreaks) == 0 {
				value = append(value, ' ')
			}
			leadingBreak = leadingBreak[:0]
		} else {
			value = append(value, leadingBreak...)
			leadingBreak = leadingBreak[:0]
		}
		value = append(value, trailingBreaks...)
		trailingBreaks = trailingBreaks[:0]

		leadingBlank = isBlank(s.reader.peek(0))
		for !isBreakZ(s.reader.peek(0)) {
			value = append(value, s.reader.peek(0))
			s.reader.skip()
			if err := s.reader.cache(1); err != nil {
				return Token{}, err
			}
		}
		if s.reader.peek(0) == 0 {
			break
		}
		if err := s.reader.cache(2); err != nil {
			return Token{}, err
		}
		leadingBreak = s.reader.readBreak(leadingBreak)

		indent, trailingBreaks, endMark, err = s.scanBlockScalarBreaks(indent, trailingBreaks, startMark)
		if err != nil {
			return Token{}, err
		}
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
	}

	// Chomping: clip keeps one trailing break, keep keeps them all,
	// strip drops them all.
	if chomping != -1 {
		value = append(value, leadingBreak...)
	}
	if chomping == 1 {
		value = append(value, trailingBreaks...)
	}

	style := LITERAL_SCALAR_STYLE
	if !literal {
		style = FOLDED_SCALAR_STYLE
	}
	return Token{
		Type:      SCALAR_TOKEN,
		StartMark: startMark,
		EndMark:   endMark,
		Value:     string(value),
		Style:     Style(style),
	}, nil
}

// scanBlockScalarBreaks consumes the indentation and line breaks between
// block scalar lines, determining the content indentation when it is not
// given explicitly.
func (s *Scanner) scanBlockScalarBreaks(indent int, breaks []rune, startMark Mark) (int, []rune, Mark, error) {
	endMark := s.reader.mark
	maxIndent := 0
	for {
		if err := s.reader.cache(1); err != nil {
			return 0, nil, Mark{}, err
		}
		for (indent == 0 || s.reader.mark.Column < indent) && s.reader.peek(0) == ' ' {
			s.reader.skip()
			if err := s.reader.cache(1); err != nil {
				return 0, nil, Mark{}, err
			}
		}
		if s.reader.mark.Column > maxIndent {
			maxIndent = s.reader.mark.Column
		}
		if (indent == 0 || s.reader.mark.Column < indent) && s.reader.peek(0) == '\t' {
			return 0, nil, Mark{}, scannerError("while scanning a block scalar", startMark,
				"found a tab character where an indentation space is expected", s.reader.mark)
		}
		if !isBreak(s.reader.peek(0)) {
			break
		}
		if err := s.reader.cache(2); err != nil {
			return 0, nil, Mark{}, err
		}
		breaks = s.reader.readBreak(breaks)
		endMark = s.reader.mark
	}
	if indent == 0 {
		indent = maxIndent
		if indent < s.indent+1 {
			indent = s.indent + 1
		}
		if indent < 1 {
			indent = 1
		}
	}
	return indent, breaks, endMark, nil
}

// scanFlowScalar scans a single- or double-quoted scalar.
func (s *Scanner) scanFlowScalar(single bool) (Token, error) {
	startMark := s.reader.mark
	s.reader.skip() // The opening quote.

	var value, leadingBreak, trailingBreaks, whitespaces []rune
	leadingBlanks := false
	for {
		if err := s.reader.cache(4); err != nil {
			return Token{}, err
		}

		if s.reader.mark.Column == 0 &&
			((s.reader.peek(0) == '-' && s.reader.peek(1) == '-' && s.reader.peek(2) == '-') ||
				(s.reader.peek(0) == '.' && s.reader.peek(1) == '.' && s.reader.peek(2) == '.')) &&
			isBlankZ(s.reader.peek(3)) {
			return Token{}, scannerError("while scanning a quoted scalar", startMark,
				"found unexpected document indicator", s.reader.mark)
		}
		if s.reader.peek(0) == 0 {
			return Token{}, scannerError("while scanning a quoted scalar", startMark,
				"found unexpected end of stream", s.reader.mark)
		}

		// Non-blank characters.
		leadingBlanks = false
		for !isBlankZ(s.reader.peek(0)) {
			c := s.reader.peek(0)
			switch {
			case single && c == '\'' && s.reader.peek(1) == '\'':
				// An escaped single quote.
				value = append(value, '\'')
				s.reader.skip()
				s.reader.skip()

			case single && c == '\'':
				goto done

			case !single && c == '"':
				goto done

			case !single && c == '\\' && isBreak(s.reader.peek(1)):
				// An escaped line break erases the break and the
				// following indentation.
				if err := s.reader.cache(3); err != nil {
					return Token{}, err
				}
				s.reader.skip()
				s.reader.skipBreak()
				leadingBlanks = true
				goto consumeBlanks

			case !single && c == '\\':
				codeLength := 0
				switch s.reader.peek(1) {
				case '0':
					value = append(value, 0)
				case 'a':
					value = append(value, '\a')
				case 'b':
					value = append(value, '\b')
				case 't', '\t':
					value = append(value, '\t')
				case 'n':
					value = append(value, '\n')
				case 'v':
					value = append(value, '\v')
				case 'f':
					value = append(value, '\f')
				case 'r':
					value = append(value, '\r')
				case 'e':
					value = append(value, 0x1B)
				case ' ':
					value = append(value, ' ')
				case '"':
					value = append(value, '"')
				case '\'':
					value = append(value, '\'')
				case '\\':
					value = append(value, '\\')
				case 'N':
					value = append(value, 0x85)
				case '_':
					value = append(value, 0xA0)
				case 'L':
					value = append(value, 0x2028)
				case 'P':
					value = append(value, 0x2029)
				case 'x':
					codeLength = 2
				case 'u':
					codeLength = 4
				case 'U':
					codeLength = 8
				default:
					return Token{}, scannerError("while parsing a quoted scalar", startMark,
						"found unknown escape character", s.reader.mark)
				}
				s.reader.skip()
				s.reader.skip()
				if codeLength > 0 {
					if err := s.reader.cache(codeLength); err != nil {
						return Token{}, err
					}
					code := 0
					for k := 0; k < codeLength; k++ {
						if !isHex(s.reader.peek(k)) {
							return Token{}, scannerError("while parsing a quoted scalar", startMark,
								"did not find expected hexdecimal number", s.reader.mark)
						}
						code = code<<4 + asHex(s.reader.peek(k))
					}
					if code >= 0xD800 && code <= 0xDFFF || code > 0x10FFFF {
						return Token{}, scannerError("while parsing a quoted scalar", startMark,
							"found invalid Unicode character escape code", s.reader.mark)
					}
					value = append(value, rune(code))
					for k := 0; k < codeLength; k++ {
						s.reader.skip()
					}
				}

			default:
				value = append(value, c)
				s.reader.skip()
			}
			if err := s.reader.cache(2); err != nil {
				return Token{}, err
			}
		}

	consumeBlanks:
		// Blanks and breaks: fold them per the flow scalar rules.
		if err := s.reader.cache(1); err != nil {
			return Token{}, err
		}
		for isBlank(s.reader.peek(0)) || isBreak(s.reader.peek(0)) {
			if isBlank(s.reader.peek(0)) {
				// Blanks before the first break separate content; blanks
				// after a break are indentation and vanish.
				if !leadingBlanks {
					whitespaces = append(whitespaces, s.reader.peek(0))
				}
				s.reader.skip()
			} else {
				if err := s.reader.cache(2); err != nil {
					return Token{}, err
				}
				if !leadingBlanks {
					whitespaces = whitespaces[:0]
					leadingBreak = s.reader.readBreak(leadingBreak)
					leadingBlanks = true
				} else {
					trailingBreaks = s.reader.readBreak(trailingBreaks)
				}
			}
			if err := s.reader.cache(1); err != nil {
				return Token{}, err
			}
		}
		if leadingBlanks {
			// A single '\n' folds to a space, further breaks are kept.
			// An escaped break leaves leadingBreak empty and folds to nothing.
			if len(leadingBreak) > 0 && leadingBreak[0] == '\n' {
				if len(trailingBreaks) == 0 {
					value = append(value, ' ')
				} else {
					value = append(value, trailingBreaks...)
				}
			} else {
				value = append(value, leadingBreak...)
				value = append(value, trailingBreaks...)
			}
			leadingBreak = leadingBreak[:0]
			trailingBreaks = trailingBreaks[:0]
		} else {
			value = append(value, whitespaces...)
			whitespaces = whitespaces[:0]
		}
	}

done:
	s.reader.skip() // The closing quote.
	style := SINGLE_QUOTED_SCALAR_STYLE
	if !single {
		style = DOUBLE_QUOTED_SCALAR_STYLE
	}
	return Token{
		Type:      SCALAR_TOKEN,
		StartMark: startMark,
		EndMark:   s.reader.mark,
		Value:     string(value),
		Style:     Style(style),
	}, nil
}

// scanPlainScalar scans an unquoted scalar.
func (s *Scanner) scanPlainScalar() (Token, error) {
	startMark := s.reader.mark
	endMark := startMark
	indent := s.indent + 1

	var value, leadingBreak, trailingBreaks, whitespaces []rune
	leadingBlanks := false

	for {
		if err := s.reader.cache(4); err != nil {
			return Token{}, err
		}

		if s.reader.mark.Column == 0 &&
			((s.reader.peek(0) == '-' && s.reader.peek(1) == '-' && s.reader.peek(2) == '-') ||
				(s.reader.peek(0) == '.' && s.reader.peek(1) == '.' && s.reader.peek(2) == '.')) &&
			isBlankZ(s.reader.peek(3)) {
			break
		}
		if s.reader.peek(0) == '#' {
			break
		}

		for !isBlankZ(s.reader.peek(0)) {
			c := s.reader.peek(0)
			if s.flowLevel > 0 && c == ':' &&
				!isBlankZ(s.reader.peek(1)) &&
				s.reader.peek(1) != ',' && s.reader.peek(1) != '[' && s.reader.peek(1) != ']' &&
				s.reader.peek(1) != '{' && s.reader.peek(1) != '}' {
				return Token{}, scannerError("while scanning a plain scalar", startMark,
					"found unexpected ':'", s.reader.mark)
			}
			if c == ':' && isBlankZ(s.reader.peek(1)) ||
				s.flowLevel > 0 && (c == ',' || c == ':' || c == '?' ||
					c == '[' || c == ']' || c == '{' || c == '}') {
				break
			}

			// Join the folded whitespace accumulated so far.
			if leadingBlanks || len(whitespaces) > 0 {
				if leadingBlanks {
					if len(leadingBreak) > 0 && leadingBreak[0] == '\n' {
						if len(trailingBreaks) == 0 {
							value = append(value, ' ')
						} else {
							value = append(value, trailingBreaks...)
						}
					} else {
						value = append(value, leadingBreak...)
						value = append(value, trailingBreaks...)
					}
					leadingBreak = leadingBreak[:0]
					trailingBreaks = trailingBreaks[:0]
					leadingBlanks = false
				} else {
					value = append(value, whitespaces...)
					whitespaces = whitespaces[:0]
				}
			}

			value = append(value, c)
			s.reader.skip()
			endMark = s.reader.mark
			if err := s.reader.cache(2); err != nil {
				return Token{}, err
			}
		}

		if !(isBlank(s.reader.peek(0)) || isBreak(s.reader.peek(0))) {
			break
		}

		for isBlank(s.reader.peek(0)) || isBreak(s.reader.peek(0)) {
			if isBlank(s.reader.peek(0)) {
				// Tabs may not be part of a plain scalar's indentation.
				if leadingBlanks && s.reader.mark.Column < indent && s.reader.peek(0) == '\t' {
					return Token{}, scannerError("while scanning a plain scalar", startMark,
						"found a tab character that violates indentation", s.reader.mark)
				}
				if !leadingBlanks {
					whitespaces = append(whitespaces, s.reader.peek(0))
				}
				s.reader.skip()
			} else {
				if err := s.reader.cache(2); err != nil {
					return Token{}, err
				}
				if !leadingBlanks {
					whitespaces = whitespaces[:0]
					leadingBreak = s.reader.readBreak(leadingBreak)
					leadingBlanks = true
				} else {
					trailingBreaks = s.reader.readBreak(trailingBreaks)
				}
			}
			if err := s.reader.cache(1); err != nil {
				return Token{}, err
			}
		}

		// Indentation decides whether the next line continues this scalar.
		if s.flowLevel == 0 && s.reader.mark.Column < indent {
			break
		}
	}

	token := Token{
		Type:      SCALAR_TOKEN,
		StartMark: startMark,
		EndMark:   endMark,
		Value:     string(value),
		Style:     Style(PLAIN_SCALAR_STYLE),
	}
	// A trailing line break ends the scalar but still allows a simple key
	// on the following line.
	if leadingBlanks {
		s.simpleKeyAllowed = true
	}
	return token, nil
}
