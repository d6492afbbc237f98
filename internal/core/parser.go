// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// Parser stage: turns the token stream into a stream of events.
//
// The grammar below drives an LL(1) state machine. Productions suffixed
// with *_e are empty nodes.
//
// stream               ::= STREAM-START implicit_document? explicit_document* STREAM-END
// implicit_document    ::= block_node DOCUMENT-END*
// explicit_document    ::= DIRECTIVE* DOCUMENT-START block_node? DOCUMENT-END*
// block_node_or_indentless_sequence ::=
//                          ALIAS
//                          | properties (block_content | indentless_block_sequence)?
//                          | block_content
//                          | indentless_block_sequence
// block_node           ::= ALIAS | properties block_content? | block_content
// flow_node            ::= ALIAS | properties flow_content? | flow_content
// properties           ::= TAG ANCHOR? | ANCHOR TAG?
// block_content        ::= block_collection | flow_collection | SCALAR
// flow_content         ::= flow_collection | SCALAR
// block_collection     ::= block_sequence | block_mapping
// flow_collection      ::= flow_sequence | flow_mapping
// block_sequence       ::= BLOCK-SEQUENCE-START (BLOCK-ENTRY block_node?)* BLOCK-END
// indentless_sequence  ::= (BLOCK-ENTRY block_node?)+
// block_mapping        ::= BLOCK-MAPPING_START
//                          ((KEY block_node_or_indentless_sequence?)?
//                          (VALUE block_node_or_indentless_sequence?)?)*
//                          BLOCK-END
// flow_sequence        ::= FLOW-SEQUENCE-START
//                          (flow_sequence_entry FLOW-ENTRY)*
//                          flow_sequence_entry?
//                          FLOW-SEQUENCE-END
// flow_sequence_entry  ::= flow_node | KEY flow_node? (VALUE flow_node?)?
// flow_mapping         ::= FLOW-MAPPING-START
//                          (flow_mapping_entry FLOW-ENTRY)*
//                          flow_mapping_entry?
//                          FLOW-MAPPING-END
// flow_mapping_entry   ::= flow_node | KEY flow_node? (VALUE flow_node?)?

package core

import "io"

type parserState int

const (
	parseStreamStartState parserState = iota
	parseImplicitDocumentStartState
	parseDocumentStartState
	parseDocumentContentState
	parseDocumentEndState
	parseBlockNodeState
	parseBlockNodeOrIndentlessSequenceState
	parseFlowNodeState
	parseBlockSequenceFirstEntryState
	parseBlockSequenceEntryState
	parseIndentlessSequenceEntryState
	parseBlockMappingFirstKeyState
	parseBlockMappingKeyState
	parseBlockMappingValueState
	parseFlowSequenceFirstEntryState
	parseFlowSequenceEntryState
	parseFlowSequenceEntryMappingKeyState
	parseFlowSequenceEntryMappingValueState
	parseFlowSequenceEntryMappingEndState
	parseFlowMappingFirstKeyState
	parseFlowMappingKeyState
	parseFlowMappingValueState
	parseFlowMappingEmptyValueState
	parseEndState
)

// Parser produces the event stream for a single token stream.
type Parser struct {
	scanner *Scanner

	state         parserState
	states        []parserState
	marks         []Mark
	tagDirectives []TagDirective

	streamEndProduced bool
	err               error
}

// NewParser reads the character stream from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: NewScanner(r)}
}

// NewParserBytes parses an in-memory stream.
func NewParserBytes(input []byte) *Parser {
	return &Parser{scanner: NewScannerBytes(input)}
}

// NewParserFromScanner parses the tokens produced by an existing scanner.
func NewParserFromScanner(s *Scanner) *Parser {
	return &Parser{scanner: s}
}

// Done reports whether STREAM-END has been produced.
func (p *Parser) Done() bool {
	return p.streamEndProduced
}

// Parse fills event with the next event of the stream. After the STREAM-END
// event has been produced, further calls return events of the zero type.
func (p *Parser) Parse(event *Event) error {
	if p.err != nil {
		return p.err
	}
	*event = Event{}
	if p.streamEndProduced || p.state == parseEndState {
		return nil
	}
	if err := p.stateMachine(event); err != nil {
		p.err = err
		return err
	}
	if event.Type == STREAM_END_EVENT {
		p.streamEndProduced = true
	}
	return nil
}

func (p *Parser) peekToken() (*Token, error) {
	return p.scanner.Peek()
}

func (p *Parser) skipToken() {
	p.scanner.Skip()
}

func parserErrorAt(problem string, problemMark Mark) error {
	return ParserError{Mark: problemMark, Message: problem}
}

func parserErrorContext(context string, contextMark Mark, problem string, problemMark Mark) error {
	return ParserError{
		ContextMark:    contextMark,
		ContextMessage: context,
		Mark:           problemMark,
		Message:        problem,
	}
}

func (p *Parser) stateMachine(event *Event) error {
	switch p.state {
	case parseStreamStartState:
		return p.parseStreamStart(event)
	case parseImplicitDocumentStartState:
		return p.parseDocumentStart(event, true)
	case parseDocumentStartState:
		return p.parseDocumentStart(event, false)
	case parseDocumentContentState:
		return p.parseDocumentContent(event)
	case parseDocumentEndState:
		return p.parseDocumentEnd(event)
	case parseBlockNodeState:
		return p.parseNode(event, true, false)
	case parseBlockNodeOrIndentlessSequenceState:
		return p.parseNode(event, true, true)
	case parseFlowNodeState:
		return p.parseNode(event, false, false)
	case parseBlockSequenceFirstEntryState:
		return p.parseBlockSequenceEntry(event, true)
	case parseBlockSequenceEntryState:
		return p.parseBlockSequenceEntry(event, false)
	case parseIndentlessSequenceEntryState:
		return p.parseIndentlessSequenceEntry(event)
	case parseBlockMappingFirstKeyState:
		return p.parseBlockMappingKey(event, true)
	case parseBlockMappingKeyState:
		return p.parseBlockMappingKey(event, false)
	case parseBlockMappingValueState:
		return p.parseBlockMappingValue(event)
	case parseFlowSequenceFirstEntryState:
		return p.parseFlowSequenceEntry(event, true)
	case parseFlowSequenceEntryState:
		return p.parseFlowSequenceEntry(event, false)
	case parseFlowSequenceEntryMappingKeyState:
		return p.parseFlowSequenceEntryMappingKey(event)
	case parseFlowSequenceEntryMappingValueState:
		return p.parseFlowSequenceEntryMappingValue(event)
	case parseFlowSequenceEntryMappingEndState:
		return p.parseFlowSequenceEntryMappingEnd(event)
	case parseFlowMappingFirstKeyState:
		return p.parseFlowMappingKey(event, true)
	case parseFlowMappingKeyState:
		return p.parseFlowMappingKey(event, false)
	case parseFlowMappingValueState:
		return p.parseFlowMappingValue(event, false)
	case parseFlowMappingEmptyValueState:
		return p.parseFlowMappingValue(event, true)
	default:
		panic("invalid parser state")
	}
}

// stream ::= STREAM-START implicit_document? explicit_document* STREAM-END
//            ************
func (p *Parser) parseStreamStart(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}
	if token.Type != STREAM_START_TOKEN {
		return parserErrorAt("did not find expected <stream-start>", token.StartMark)
	}
	p.state = parseImplicitDocumentStartState
	*event = Event{
		Type:      STREAM_START_EVENT,
		StartMark: token.StartMark,
		EndMark:   token.EndMark,
		Encoding:  token.Encoding,
	}
	p.skipToken()
	return nil
}

// explicit_document ::= DIRECTIVE* DOCUMENT-START block_node? DOCUMENT-END*
//                       *************************
func (p *Parser) parseDocumentStart(event *Event, implicit bool) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if !implicit {
		// Stray DOCUMENT-END tokens between documents are skipped.
		for token.Type == DOCUMENT_END_TOKEN {
			p.skipToken()
			token, err = p.peekToken()
			if err != nil {
				return err
			}
		}
	}

	if implicit && token.Type != VERSION_DIRECTIVE_TOKEN &&
		token.Type != TAG_DIRECTIVE_TOKEN &&
		token.Type != DOCUMENT_START_TOKEN &&
		token.Type != STREAM_END_TOKEN {
		// An implicit document: content without '---'.
		if err := p.processDirectives(nil, nil); err != nil {
			return err
		}
		p.states = append(p.states, parseDocumentEndState)
		p.state = parseBlockNodeState
		*event = Event{
			Type:      DOCUMENT_START_EVENT,
			StartMark: token.StartMark,
			EndMark:   token.EndMark,
			Implicit:  true,
		}
		return nil
	}

	if token.Type != STREAM_END_TOKEN {
		// An explicit document.
		startMark := token.StartMark
		var versionDirective *VersionDirective
		var tagDirectives []TagDirective
		if err := p.processDirectives(&versionDirective, &tagDirectives); err != nil {
			return err
		}
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != DOCUMENT_START_TOKEN {
			return parserErrorAt("did not find expected <document start>", token.StartMark)
		}
		p.states = append(p.states, parseDocumentEndState)
		p.state = parseDocumentContentState
		*event = Event{
			Type:             DOCUMENT_START_EVENT,
			StartMark:        startMark,
			EndMark:          token.EndMark,
			VersionDirective: versionDirective,
			TagDirectives:    tagDirectives,
		}
		p.skipToken()
		return nil
	}

	// The stream is over.
	p.state = parseEndState
	*event = Event{
		Type:      STREAM_END_EVENT,
		StartMark: token.StartMark,
		EndMark:   token.EndMark,
	}
	p.skipToken()
	return nil
}

// explicit_document ::= DIRECTIVE* DOCUMENT-START block_node? DOCUMENT-END*
//                                                 ***********
func (p *Parser) parseDocumentContent(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}
	if token.Type == VERSION_DIRECTIVE_TOKEN ||
		token.Type == TAG_DIRECTIVE_TOKEN ||
		token.Type == DOCUMENT_START_TOKEN ||
		token.Type == DOCUMENT_END_TOKEN ||
		token.Type == STREAM_END_TOKEN {
		p.state = p.states[len(p.states)-1]
		p.states = p.states[:len(p.states)-1]
		return p.processEmptyScalar(event, token.StartMark)
	}
	return p.parseNode(event, true, false)
}

// implicit_document ::= block_node DOCUMENT-END*
//                                  *************
// explicit_document ::= DIRECTIVE* DOCUMENT-START block_node? DOCUMENT-END*
//                                                             *************
func (p *Parser) parseDocumentEnd(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}

	startMark := token.StartMark
	endMark := token.StartMark
	implicit := true
	if token.Type == DOCUMENT_END_TOKEN {
		endMark = token.EndMark
		implicit = false
		p.skipToken()
	}
	p.tagDirectives = p.tagDirectives[:0]

	p.state = parseDocumentStartState
	*event = Event{
		Type:      DOCUMENT_END_EVENT,
		StartMark: startMark,
		EndMark:   endMark,
		Implicit:  implicit,
	}
	return nil
}

// processDirectives collects the directives preceding a document and merges
// them with the default tag handles.
func (p *Parser) processDirectives(versionDirective **VersionDirective, tagDirectives *[]TagDirective) error {
	var version *VersionDirective
	var tags []TagDirective

	token, err := p.peekToken()
	if err != nil {
		return err
	}
	for token.Type == VERSION_DIRECTIVE_TOKEN || token.Type == TAG_DIRECTIVE_TOKEN {
		if token.Type == VERSION_DIRECTIVE_TOKEN {
			if version != nil {
				return parserErrorAt("found duplicate %YAML directive", token.StartMark)
			}
			if token.Major != 1 || token.Minor != 1 {
				return parserErrorAt("found incompatible YAML document", token.StartMark)
			}
			version = &VersionDirective{Major: token.Major, Minor: token.Minor}
		} else {
			value := TagDirective{Handle: token.Value, Prefix: token.Prefix}
			if err := appendTagDirective(&tags, value, false, token.StartMark); err != nil {
				return err
			}
		}
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
	}

	for _, def := range defaultTagDirectives {
		if err := appendTagDirective(&tags, def, true, token.StartMark); err != nil {
			return err
		}
	}

	if versionDirective != nil {
		*versionDirective = version
	}
	if tagDirectives != nil {
		*tagDirectives = tags
	}
	p.tagDirectives = append(p.tagDirectives[:0], tags...)
	return nil
}

// appendTagDirective adds a %TAG handle, rejecting duplicates unless the
// addition is one of the implicit defaults.
func appendTagDirective(directives *[]TagDirective, value TagDirective, allowDuplicates bool, mark Mark) error {
	for _, dir := range *directives {
		if dir.Handle == value.Handle {
			if allowDuplicates {
				return nil
			}
			return parserErrorAt("found duplicate %TAG directive", mark)
		}
	}
	*directives = append(*directives, value)
	return nil
}

// parseNode produces a scalar, alias or collection-start event for the node
// at the head of the token stream.
//
// block_node_or_indentless_sequence ::=
//                          ALIAS
//                          | properties (block_content | indentless_block_sequence)?
//                          | block_content
//                          | indentless_block_sequence
// block_node           ::= ALIAS | properties block_content? | block_content
// flow_node            ::= ALIAS | properties flow_content? | flow_content
// properties           ::= TAG ANCHOR? | ANCHOR TAG?
// block_content        ::= block_collection | flow_collection | SCALAR
// flow_content         ::= flow_collection | SCALAR
func (p *Parser) parseNode(event *Event, block, indentlessSequence bool) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type == ALIAS_TOKEN {
		p.state = p.states[len(p.states)-1]
		p.states = p.states[:len(p.states)-1]
		*event = Event{
			Type:      ALIAS_EVENT,
			StartMark: token.StartMark,
			EndMark:   token.EndMark,
			Anchor:    token.Value,
		}
		p.skipToken()
		return nil
	}

	startMark := token.StartMark
	endMark := token.StartMark

	var anchor, tagHandle, tagSuffix string
	var tagMark Mark
	if token.Type == ANCHOR_TOKEN {
		anchor = token.Value
		startMark = token.StartMark
		endMark = token.EndMark
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type == TAG_TOKEN {
			tagHandle = token.Value
			tagSuffix = token.Suffix
			tagMark = token.StartMark
			endMark = token.EndMark
			p.skipToken()
			token, err = p.peekToken()
			if err != nil {
				return err
			}
		}
	} else if token.Type == TAG_TOKEN {
		tagHandle = token.Value
		tagSuffix = token.Suffix
		startMark = token.StartMark
		tagMark = token.StartMark
		endMark = token.EndMark
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type == ANCHOR_TOKEN {
			anchor = token.Value
			endMark = token.EndMark
			p.skipToken()
			token, err = p.peekToken()
			if err != nil {
				return err
			}
		}
	}

	// Expand the tag handle against the document's %TAG directives. A
	// verbatim or non-specific tag has no handle and is taken as is.
	var tag string
	if tagHandle != "" {
		for _, dir := range p.tagDirectives {
			if dir.Handle == tagHandle {
				tag = dir.Prefix + tagSuffix
				break
			}
		}
		if tag == "" {
			return parserErrorContext("while parsing a node", startMark,
				"found undefined tag handle", tagMark)
		}
	} else {
		tag = tagSuffix
	}

	implicit := tag == "" || tag == "!"
	if indentlessSequence && token.Type == BLOCK_ENTRY_TOKEN {
		endMark = token.EndMark
		p.state = parseIndentlessSequenceEntryState
		*event = Event{
			Type:      SEQUENCE_START_EVENT,
			StartMark: startMark,
			EndMark:   endMark,
			Anchor:    anchor,
			Tag:       tag,
			Implicit:  implicit,
			Style:     Style(BLOCK_SEQUENCE_STYLE),
		}
		return nil
	}

	switch {
	case token.Type == SCALAR_TOKEN:
		plainImplicit := false
		quotedImplicit := false
		if token.ScalarStyle() == PLAIN_SCALAR_STYLE && tag == "" || tag == "!" {
			plainImplicit = true
		} else if tag == "" {
			quotedImplicit = true
		}
		p.state = p.states[len(p.states)-1]
		p.states = p.states[:len(p.states)-1]
		*event = Event{
			Type:           SCALAR_EVENT,
			StartMark:      token.StartMark,
			EndMark:        token.EndMark,
			Anchor:         anchor,
			Tag:            tag,
			Value:          token.Value,
			Implicit:       plainImplicit,
			QuotedImplicit: quotedImplicit,
			Style:          token.Style,
		}
		p.skipToken()
		return nil

	case token.Type == FLOW_SEQUENCE_START_TOKEN:
		endMark = token.EndMark
		p.state = parseFlowSequenceFirstEntryState
		*event = Event{
			Type:      SEQUENCE_START_EVENT,
			StartMark: startMark,
			EndMark:   endMark,
			Anchor:    anchor,
			Tag:       tag,
			Implicit:  implicit,
			Style:     Style(FLOW_SEQUENCE_STYLE),
		}
		return nil

	case token.Type == FLOW_MAPPING_START_TOKEN:
		endMark = token.EndMark
		p.state = parseFlowMappingFirstKeyState
		*event = Event{
			Type:      MAPPING_START_EVENT,
			StartMark: startMark,
			EndMark:   endMark,
			Anchor:    anchor,
			Tag:       tag,
			Implicit:  implicit,
			Style:     Style(FLOW_MAPPING_STYLE),
		}
		return nil

	case block && token.Type == BLOCK_SEQUENCE_START_TOKEN:
		endMark = token.EndMark
		p.state = parseBlockSequenceFirstEntryState
		*event = Event{
			Type:      SEQUENCE_START_EVENT,
			StartMark: startMark,
			EndMark:   endMark,
			Anchor:    anchor,
			Tag:       tag,
			Implicit:  implicit,
			Style:     Style(BLOCK_SEQUENCE_STYLE),
		}
		return nil

	case block && token.Type == BLOCK_MAPPING_START_TOKEN:
		endMark = token.EndMark
		p.state = parseBlockMappingFirstKeyState
		*event = Event{
			Type:      MAPPING_START_EVENT,
			StartMark: startMark,
			EndMark:   endMark,
			Anchor:    anchor,
			Tag:       tag,
			Implicit:  implicit,
			Style:     Style(BLOCK_MAPPING_STYLE),
		}
		return nil

	case anchor != "" || tag != "":
		// A node with properties but no content is an empty scalar.
		p.state = p.states[len(p.states)-1]
		p.states = p.states[:len(p.states)-1]
		*event = Event{
			Type:      SCALAR_EVENT,
			StartMark: startMark,
			EndMark:   endMark,
			Anchor:    anchor,
			Tag:       tag,
			Implicit:  implicit,
			Style:     Style(PLAIN_SCALAR_STYLE),
		}
		return nil
	}

	context := "while parsing a flow node"
	if block {
		context = "while parsing a block node"
	}
	return parserErrorContext(context, startMark,
		"did not find expected node content", token.StartMark)
}

// block_sequence ::= BLOCK-SEQUENCE-START (BLOCK-ENTRY block_node?)* BLOCK-END
//                    ********************  *********** *             *********
func (p *Parser) parseBlockSequenceEntry(event *Event, first bool) error {
	if first {
		token, err := p.peekToken()
		if err != nil {
			return err
		}
		p.marks = append(p.marks, token.StartMark)
		p.skipToken()
	}

	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type == BLOCK_ENTRY_TOKEN {
		mark := token.EndMark
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != BLOCK_ENTRY_TOKEN && token.Type != BLOCK_END_TOKEN {
			p.states = append(p.states, parseBlockSequenceEntryState)
			return p.parseNode(event, true, false)
		}
		p.state = parseBlockSequenceEntryState
		return p.processEmptyScalar(event, mark)
	}

	if token.Type == BLOCK_END_TOKEN {
		p.state = p.states[len(p.states)-1]
		p.states = p.states[:len(p.states)-1]
		p.marks = p.marks[:len(p.marks)-1]
		*event = Event{
			Type:      SEQUENCE_END_EVENT,
			StartMark: token.StartMark,
			EndMark:   token.EndMark,
		}
		p.skipToken()
		return nil
	}

	contextMark := p.marks[len(p.marks)-1]
	p.marks = p.marks[:len(p.marks)-1]
	return parserErrorContext("while parsing a block collection", contextMark,
		"did not find expected '-' indicator", token.StartMark)
}

// indentless_sequence ::= (BLOCK-ENTRY block_node?)+
//                          *********** *
func (p *Parser) parseIndentlessSequenceEntry(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type == BLOCK_ENTRY_TOKEN {
		mark := token.EndMark
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != BLOCK_ENTRY_TOKEN &&
			token.Type != KEY_TOKEN &&
			token.Type != VALUE_TOKEN &&
			token.Type != BLOCK_END_TOKEN {
			p.states = append(p.states, parseIndentlessSequenceEntryState)
			return p.parseNode(event, true, false)
		}
		p.state = parseIndentlessSequenceEntryState
		return p.processEmptyScalar(event, mark)
	}

	// The indentless sequence ends at the first token that cannot start an
	// entry; no BLOCK-END is ever produced for it.
	p.state = p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	*event = Event{
		Type:      SEQUENCE_END_EVENT,
		StartMark: token.StartMark,
		EndMark:   token.StartMark,
	}
	return nil
}

// block_mapping ::= BLOCK-MAPPING_START
//                   *******************
//                   ((KEY block_node_or_indentless_sequence?)?
//                     *** *
//                   (VALUE block_node_or_indentless_sequence?)?)*
//                   BLOCK-END
//                   *********
func (p *Parser) parseBlockMappingKey(event *Event, first bool) error {
	if first {
		token, err := p.peekToken()
		if err != nil {
			return err
		}
		p.marks = append(p.marks, token.StartMark)
		p.skipToken()
	}

	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type == KEY_TOKEN {
		mark := token.EndMark
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != KEY_TOKEN &&
			token.Type != VALUE_TOKEN &&
			token.Type != BLOCK_END_TOKEN {
			p.states = append(p.states, parseBlockMappingValueState)
			return p.parseNode(event, true, true)
		}
		p.state = parseBlockMappingValueState
		return p.processEmptyScalar(event, mark)
	}

	if token.Type == BLOCK_END_TOKEN {
		p.state = p.states[len(p.states)-1]
		p.states = p.states[:len(p.states)-1]
		p.marks = p.marks[:len(p.marks)-1]
		*event = Event{
			Type:      MAPPING_END_EVENT,
			StartMark: token.StartMark,
			EndMark:   token.EndMark,
		}
		p.skipToken()
		return nil
	}

	contextMark := p.marks[len(p.marks)-1]
	p.marks = p.marks[:len(p.marks)-1]
	return parserErrorContext("while parsing a block mapping", contextMark,
		"did not find expected key", token.StartMark)
}

// block_mapping ::= BLOCK-MAPPING_START
//                   ((KEY block_node_or_indentless_sequence?)?
//                   (VALUE block_node_or_indentless_sequence?)?)*
//                    ***** *
//                   BLOCK-END
func (p *Parser) parseBlockMappingValue(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type == VALUE_TOKEN {
		mark := token.EndMark
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != KEY_TOKEN &&
			token.Type != VALUE_TOKEN &&
			token.Type != BLOCK_END_TOKEN {
			p.states = append(p.states, parseBlockMappingKeyState)
			return p.parseNode(event, true, true)
		}
		p.state = parseBlockMappingKeyState
		return p.processEmptyScalar(event, mark)
	}

	p.state = parseBlockMappingKeyState
	return p.processEmptyScalar(event, token.StartMark)
}

// flow_sequence ::= FLOW-SEQUENCE-START
//                   *******************
//                   (flow_sequence_entry FLOW-ENTRY)*
//                                        **********
//                   flow_sequence_entry?
//                   FLOW-SEQUENCE-END
//                   *****************
// flow_sequence_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//                         *
func (p *Parser) parseFlowSequenceEntry(event *Event, first bool) error {
	if first {
		token, err := p.peekToken()
		if err != nil {
			return err
		}
		p.marks = append(p.marks, token.StartMark)
		p.skipToken()
	}

	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type != FLOW_SEQUENCE_END_TOKEN {
		if !first {
			if token.Type != FLOW_ENTRY_TOKEN {
				contextMark := p.marks[len(p.marks)-1]
				p.marks = p.marks[:len(p.marks)-1]
				return parserErrorContext("while parsing a flow sequence", contextMark,
					"did not find expected ',' or ']'", token.StartMark)
			}
			p.skipToken()
			token, err = p.peekToken()
			if err != nil {
				return err
			}
		}

		if token.Type == KEY_TOKEN {
			// A single key/value pair inside a flow sequence is an
			// implicit mapping of one entry.
			p.state = parseFlowSequenceEntryMappingKeyState
			*event = Event{
				Type:      MAPPING_START_EVENT,
				StartMark: token.StartMark,
				EndMark:   token.EndMark,
				Implicit:  true,
				Style:     Style(FLOW_MAPPING_STYLE),
			}
			p.skipToken()
			return nil
		}
		if token.Type != FLOW_SEQUENCE_END_TOKEN {
			p.states = append(p.states, parseFlowSequenceEntryState)
			return p.parseNode(event, false, false)
		}
	}

	p.state = p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	p.marks = p.marks[:len(p.marks)-1]
	*event = Event{
		Type:      SEQUENCE_END_EVENT,
		StartMark: token.StartMark,
		EndMark:   token.EndMark,
	}
	p.skipToken()
	return nil
}

// flow_sequence_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//                                     *** *
func (p *Parser) parseFlowSequenceEntryMappingKey(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}
	if token.Type != VALUE_TOKEN &&
		token.Type != FLOW_ENTRY_TOKEN &&
		token.Type != FLOW_SEQUENCE_END_TOKEN {
		p.states = append(p.states, parseFlowSequenceEntryMappingValueState)
		return p.parseNode(event, false, false)
	}
	mark := token.EndMark
	p.skipToken()
	p.state = parseFlowSequenceEntryMappingValueState
	return p.processEmptyScalar(event, mark)
}

// flow_sequence_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//                                                     ***** *
func (p *Parser) parseFlowSequenceEntryMappingValue(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}
	if token.Type == VALUE_TOKEN {
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != FLOW_ENTRY_TOKEN && token.Type != FLOW_SEQUENCE_END_TOKEN {
			p.states = append(p.states, parseFlowSequenceEntryMappingEndState)
			return p.parseNode(event, false, false)
		}
	}
	p.state = parseFlowSequenceEntryMappingEndState
	return p.processEmptyScalar(event, token.StartMark)
}

// flow_sequence_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//                                                                     *
func (p *Parser) parseFlowSequenceEntryMappingEnd(event *Event) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}
	p.state = parseFlowSequenceEntryState
	*event = Event{
		Type:      MAPPING_END_EVENT,
		StartMark: token.StartMark,
		EndMark:   token.StartMark,
	}
	return nil
}

// flow_mapping ::= FLOW-MAPPING-START
//                  ******************
//                  (flow_mapping_entry FLOW-ENTRY)*
//                                      **********
//                  flow_mapping_entry?
//                  FLOW-MAPPING-END
//                  ****************
// flow_mapping_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//                        * *** *
func (p *Parser) parseFlowMappingKey(event *Event, first bool) error {
	if first {
		token, err := p.peekToken()
		if err != nil {
			return err
		}
		p.marks = append(p.marks, token.StartMark)
		p.skipToken()
	}

	token, err := p.peekToken()
	if err != nil {
		return err
	}

	if token.Type != FLOW_MAPPING_END_TOKEN {
		if !first {
			if token.Type != FLOW_ENTRY_TOKEN {
				contextMark := p.marks[len(p.marks)-1]
				p.marks = p.marks[:len(p.marks)-1]
				return parserErrorContext("while parsing a flow mapping", contextMark,
					"did not find expected ',' or '}'", token.StartMark)
			}
			p.skipToken()
			token, err = p.peekToken()
			if err != nil {
				return err
			}
		}

		if token.Type == KEY_TOKEN {
			mark := token.EndMark
			p.skipToken()
			token, err = p.peekToken()
			if err != nil {
				return err
			}
			if token.Type != VALUE_TOKEN &&
				token.Type != FLOW_ENTRY_TOKEN &&
				token.Type != FLOW_MAPPING_END_TOKEN {
				p.states = append(p.states, parseFlowMappingValueState)
				return p.parseNode(event, false, false)
			}
			p.state = parseFlowMappingValueState
			return p.processEmptyScalar(event, mark)
		}
		if token.Type != FLOW_MAPPING_END_TOKEN {
			// A value without a key, e.g. `{: value}` or `{value}`.
			p.states = append(p.states, parseFlowMappingEmptyValueState)
			return p.parseNode(event, false, false)
		}
	}

	p.state = p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	p.marks = p.marks[:len(p.marks)-1]
	*event = Event{
		Type:      MAPPING_END_EVENT,
		StartMark: token.StartMark,
		EndMark:   token.EndMark,
	}
	p.skipToken()
	return nil
}

// flow_mapping_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//                                                    *                  ***** *
func (p *Parser) parseFlowMappingValue(event *Event, empty bool) error {
	token, err := p.peekToken()
	if err != nil {
		return err
	}
	if empty {
		p.state = parseFlowMappingKeyState
		return p.processEmptyScalar(event, token.StartMark)
	}
	if token.Type == VALUE_TOKEN {
		p.skipToken()
		token, err = p.peekToken()
		if err != nil {
			return err
		}
		if token.Type != FLOW_ENTRY_TOKEN && token.Type != FLOW_MAPPING_END_TOKEN {
			p.states = append(p.states, parseFlowMappingKeyState)
			return p.parseNode(event, false, false)
		}
	}
	p.state = parseFlowMappingKeyState
	return p.processEmptyScalar(event, token.StartMark)
}

// processEmptyScalar produces the event for an empty node.
func (p *Parser) processEmptyScalar(event *Event, mark Mark) error {
	*event = Event{
		Type:      SCALAR_EVENT,
		StartMark: mark,
		EndMark:   mark,
		Implicit:  true,
		Style:     Style(PLAIN_SCALAR_STYLE),
	}
	return nil
}
