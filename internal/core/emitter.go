// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// Emitter stage: the inverse of the parser. It accepts the same event
// grammar the parser produces and renders it as YAML text.
//
// The emitter queues events because some decisions need lookahead: an empty
// collection is rendered in flow style ([] / {}), and whether a mapping key
// fits on one line is known only once the key's events are buffered. The
// queue is drained as soon as the buffered events settle those questions.

package core

import (
	"fmt"
	"io"
)

type emitterState int

const (
	emitStreamStartState emitterState = iota
	emitFirstDocumentStartState
	emitDocumentStartState
	emitDocumentContentState
	emitDocumentEndState
	emitFlowSequenceFirstItemState
	emitFlowSequenceItemState
	emitFlowMappingFirstKeyState
	emitFlowMappingKeyState
	emitFlowMappingSimpleValueState
	emitFlowMappingValueState
	emitBlockSequenceFirstItemState
	emitBlockSequenceItemState
	emitBlockMappingFirstKeyState
	emitBlockMappingKeyState
	emitBlockMappingSimpleValueState
	emitBlockMappingValueState
	emitEndState
)

// Scalar analysis: which styles the content permits.
type scalarAnalysis struct {
	value               string
	multiline           bool
	flowPlainAllowed    bool
	blockPlainAllowed   bool
	singleQuotedAllowed bool
	blockAllowed        bool
	style               ScalarStyle
}

type anchorAnalysis struct {
	anchor string
	alias  bool
}

type tagAnalysis struct {
	handle string
	suffix string
}

// Emitter renders an event stream as YAML text. The zero value is not
// usable; construct with NewEmitter.
type Emitter struct {
	writer *writer

	// Indent is the number of spaces per indentation level, 2 to 9.
	Indent int
	// Width is the preferred line width; longer lines are folded where the
	// content allows it. Non-positive means no folding.
	Width int
	// Unicode allows non-ASCII characters to appear unescaped.
	Unicode bool

	state  emitterState
	states []emitterState

	events     []Event
	eventsHead int

	indents []int
	indent  int

	flowLevel int

	rootContext      bool
	sequenceContext  bool
	mappingContext   bool
	simpleKeyContext bool

	column     int
	whitespace bool // The last written character is a space.
	indention  bool // The last written character is an indentation break.
	openEnded  bool // A trailing plain scalar may swallow a following '---'.

	tagDirectives []TagDirective

	anchorData anchorAnalysis
	tagData    tagAnalysis
	scalarData scalarAnalysis

	err error
}

// NewEmitter writes YAML text to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		writer:  newWriter(w),
		Indent:  2,
		Width:   80,
		Unicode: true,
		state:   emitStreamStartState,
	}
}

func (e *Emitter) emitterError(problem string) error {
	return EmitterError{Problem: problem}
}

// Emit queues the event and drains every event whose rendering no longer
// depends on lookahead.
func (e *Emitter) Emit(event *Event) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, *event)
	for !e.needMoreEvents() {
		head := &e.events[e.eventsHead]
		if err := e.analyzeEvent(head); err != nil {
			e.err = err
			return err
		}
		if err := e.stateMachine(head); err != nil {
			e.err = err
			return err
		}
		e.eventsHead++
		if e.eventsHead == len(e.events) {
			e.events = e.events[:0]
			e.eventsHead = 0
		}
	}
	return nil
}

// needMoreEvents reports whether the head event still needs lookahead:
// one extra event for DOCUMENT-START, two for SEQUENCE-START, three for
// MAPPING-START, unless the buffered events already close the collection.
func (e *Emitter) needMoreEvents() bool {
	if e.eventsHead == len(e.events) {
		return true
	}
	var accumulate int
	switch e.events[e.eventsHead].Type {
	case DOCUMENT_START_EVENT:
		accumulate = 1
	case SEQUENCE_START_EVENT:
		accumulate = 2
	case MAPPING_START_EVENT:
		accumulate = 3
	default:
		return false
	}
	if len(e.events)-e.eventsHead > accumulate {
		return false
	}
	var level int
	for i := e.eventsHead; i < len(e.events); i++ {
		switch e.events[i].Type {
		case STREAM_START_EVENT, DOCUMENT_START_EVENT, SEQUENCE_START_EVENT, MAPPING_START_EVENT:
			level++
		case STREAM_END_EVENT, DOCUMENT_END_EVENT, SEQUENCE_END_EVENT, MAPPING_END_EVENT:
			level--
		}
		if level == 0 {
			return false
		}
	}
	return true
}

func (e *Emitter) appendTagDirective(value TagDirective, allowDuplicates bool) error {
	for _, dir := range e.tagDirectives {
		if dir.Handle == value.Handle {
			if allowDuplicates {
				return nil
			}
			return e.emitterError("duplicate %TAG directive")
		}
	}
	e.tagDirectives = append(e.tagDirectives, value)
	return nil
}

func (e *Emitter) increaseIndent(flow, indentless bool) {
	e.indents = append(e.indents, e.indent)
	if e.indent < 0 {
		if flow {
			e.indent = e.Indent
		} else {
			e.indent = 0
		}
	} else if !indentless {
		e.indent += e.Indent
	}
}

func (e *Emitter) popIndent() {
	e.indent = e.indents[len(e.indents)-1]
	e.indents = e.indents[:len(e.indents)-1]
}

func (e *Emitter) popState() {
	e.state = e.states[len(e.states)-1]
	e.states = e.states[:len(e.states)-1]
}

func (e *Emitter) stateMachine(event *Event) error {
	switch e.state {
	case emitStreamStartState:
		return e.emitStreamStart(event)
	case emitFirstDocumentStartState:
		return e.emitDocumentStart(event, true)
	case emitDocumentStartState:
		return e.emitDocumentStart(event, false)
	case emitDocumentContentState:
		return e.emitDocumentContent(event)
	case emitDocumentEndState:
		return e.emitDocumentEnd(event)
	case emitFlowSequenceFirstItemState:
		return e.emitFlowSequenceItem(event, true)
	case emitFlowSequenceItemState:
		return e.emitFlowSequenceItem(event, false)
	case emitFlowMappingFirstKeyState:
		return e.emitFlowMappingKey(event, true)
	case emitFlowMappingKeyState:
		return e.emitFlowMappingKey(event, false)
	case emitFlowMappingSimpleValueState:
		return e.emitFlowMappingValue(event, true)
	case emitFlowMappingValueState:
		return e.emitFlowMappingValue(event, false)
	case emitBlockSequenceFirstItemState:
		return e.emitBlockSequenceItem(event, true)
	case emitBlockSequenceItemState:
		return e.emitBlockSequenceItem(event, false)
	case emitBlockMappingFirstKeyState:
		return e.emitBlockMappingKey(event, true)
	case emitBlockMappingKeyState:
		return e.emitBlockMappingKey(event, false)
	case emitBlockMappingSimpleValueState:
		return e.emitBlockMappingValue(event, true)
	case emitBlockMappingValueState:
		return e.emitBlockMappingValue(event, false)
	case emitEndState:
		return e.emitterError("expected nothing after STREAM-END")
	}
	panic("invalid emitter state")
}

func (e *Emitter) emitStreamStart(event *Event) error {
	if event.Type != STREAM_START_EVENT {
		return e.emitterError("expected STREAM-START")
	}
	if e.Indent < 2 || e.Indent > 9 {
		e.Indent = 2
	}
	if e.Width > 0 && e.Width <= e.Indent*2 {
		e.Width = 80
	}
	if e.Width <= 0 {
		e.Width = 1<<31 - 1
	}
	e.indent = -1
	e.column = 0
	e.whitespace = true
	e.indention = true
	e.state = emitFirstDocumentStartState
	return nil
}

func (e *Emitter) emitDocumentStart(event *Event, first bool) error {
	if event.Type == DOCUMENT_START_EVENT {
		if event.VersionDirective != nil {
			if event.VersionDirective.Major != 1 || event.VersionDirective.Minor != 1 {
				return e.emitterError("incompatible %YAML directive")
			}
		}
		for _, dir := range event.TagDirectives {
			if err := e.analyzeTagDirective(dir); err != nil {
				return err
			}
			if err := e.appendTagDirective(dir, false); err != nil {
				return err
			}
		}
		for _, dir := range defaultTagDirectives {
			if err := e.appendTagDirective(dir, true); err != nil {
				return err
			}
		}

		implicit := event.Implicit && first

		if e.openEnded && (event.VersionDirective != nil || len(event.TagDirectives) > 0) {
			if err := e.writeIndicator("...", true, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}

		if event.VersionDirective != nil {
			implicit = false
			if err := e.writeIndicator("%YAML", true, false, false); err != nil {
				return err
			}
			if err := e.writeIndicator("1.1", true, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}

		if len(event.TagDirectives) > 0 {
			implicit = false
			for _, dir := range event.TagDirectives {
				if err := e.writeIndicator("%TAG", true, false, false); err != nil {
					return err
				}
				if err := e.writeTagHandle(dir.Handle); err != nil {
					return err
				}
				if err := e.writeTagContent(dir.Prefix, true); err != nil {
					return err
				}
				if err := e.writeIndent(); err != nil {
					return err
				}
			}
		}

		if !implicit {
			if err := e.writeIndent(); err != nil {
				return err
			}
			if err := e.writeIndicator("---", true, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}

		e.state = emitDocumentContentState
		return nil
	}

	if event.Type == STREAM_END_EVENT {
		if e.openEnded {
			if err := e.writeIndicator("...", true, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writer.Flush(); err != nil {
			return err
		}
		e.state = emitEndState
		return nil
	}

	return e.emitterError("expected DOCUMENT-START or STREAM-END")
}

func (e *Emitter) emitDocumentContent(event *Event) error {
	e.states = append(e.states, emitDocumentEndState)
	return e.emitNode(event, true, false, false, false)
}

func (e *Emitter) emitDocumentEnd(event *Event) error {
	if event.Type != DOCUMENT_END_EVENT {
		return e.emitterError("expected DOCUMENT-END")
	}
	if err := e.writeIndent(); err != nil {
		return err
	}
	if !event.Implicit {
		if err := e.writeIndicator("...", true, false, false); err != nil {
			return err
		}
		if err := e.writeIndent(); err != nil {
			return err
		}
	}
	if err := e.writer.Flush(); err != nil {
		return err
	}
	e.state = emitDocumentStartState
	e.tagDirectives = e.tagDirectives[:0]
	return nil
}

func (e *Emitter) emitFlowSequenceItem(event *Event, first bool) error {
	if first {
		if err := e.writeIndicator("[", true, true, false); err != nil {
			return err
		}
		e.increaseIndent(true, false)
		e.flowLevel++
	}

	if event.Type == SEQUENCE_END_EVENT {
		e.flowLevel--
		e.popIndent()
		if e.column == 0 {
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writeIndicator("]", false, false, false); err != nil {
			return err
		}
		e.popState()
		return nil
	}

	if !first {
		if err := e.writeIndicator(",", false, false, false); err != nil {
			return err
		}
	}
	if e.column == 0 || e.column > e.Width {
		if err := e.writeIndent(); err != nil {
			return err
		}
	}
	e.states = append(e.states, emitFlowSequenceItemState)
	return e.emitNode(event, false, true, false, false)
}

func (e *Emitter) emitFlowMappingKey(event *Event, first bool) error {
	if first {
		if err := e.writeIndicator("{", true, true, false); err != nil {
			return err
		}
		e.increaseIndent(true, false)
		e.flowLevel++
	}

	if event.Type == MAPPING_END_EVENT {
		e.flowLevel--
		e.popIndent()
		if err := e.writeIndicator("}", false, false, false); err != nil {
			return err
		}
		e.popState()
		return nil
	}

	if !first {
		if err := e.writeIndicator(",", false, false, false); err != nil {
			return err
		}
	}
	if e.column == 0 || e.column > e.Width {
		if err := e.writeIndent(); err != nil {
			return err
		}
	}

	if e.checkSimpleKey() {
		e.states = append(e.states, emitFlowMappingSimpleValueState)
		return e.emitNode(event, false, false, true, true)
	}
	if err := e.writeIndicator("?", true, false, false); err != nil {
		return err
	}
	e.states = append(e.states, emitFlowMappingValueState)
	return e.emitNode(event, false, false, true, false)
}

func (e *Emitter) emitFlowMappingValue(event *Event, simple bool) error {
	if simple {
		if err := e.writeIndicator(":", false, false, false); err != nil {
			return err
		}
	} else {
		if e.column > e.Width {
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writeIndicator(":", true, false, false); err != nil {
			return err
		}
	}
	e.states = append(e.states, emitFlowMappingKeyState)
	return e.emitNode(event, false, false, true, false)
}

func (e *Emitter) emitBlockSequenceItem(event *Event, first bool) error {
	if first {
		// A sequence nested directly under a mapping key shares the key's
		// indentation level.
		e.increaseIndent(false, e.mappingContext && !e.indention)
	}
	if event.Type == SEQUENCE_END_EVENT {
		e.popIndent()
		e.popState()
		return nil
	}
	if err := e.writeIndent(); err != nil {
		return err
	}
	if err := e.writeIndicator("-", true, false, true); err != nil {
		return err
	}
	e.states = append(e.states, emitBlockSequenceItemState)
	return e.emitNode(event, false, true, false, false)
}

func (e *Emitter) emitBlockMappingKey(event *Event, first bool) error {
	if first {
		e.increaseIndent(false, false)
	}
	if event.Type == MAPPING_END_EVENT {
		e.popIndent()
		e.popState()
		return nil
	}
	if err := e.writeIndent(); err != nil {
		return err
	}
	if e.checkSimpleKey() {
		e.states = append(e.states, emitBlockMappingSimpleValueState)
		return e.emitNode(event, false, false, true, true)
	}
	if err := e.writeIndicator("?", true, false, true); err != nil {
		return err
	}
	e.states = append(e.states, emitBlockMappingValueState)
	return e.emitNode(event, false, false, true, false)
}

func (e *Emitter) emitBlockMappingValue(event *Event, simple bool) error {
	if simple {
		if err := e.writeIndicator(":", false, false, false); err != nil {
			return err
		}
	} else {
		if err := e.writeIndent(); err != nil {
			return err
		}
		if err := e.writeIndicator(":", true, false, true); err != nil {
			return err
		}
	}
	e.states = append(e.states, emitBlockMappingKeyState)
	return e.emitNode(event, false, false, true, false)
}

func (e *Emitter) emitNode(event *Event, root, sequence, mapping, simpleKey bool) error {
	e.rootContext = root
	e.sequenceContext = sequence
	e.mappingContext = mapping
	e.simpleKeyContext = simpleKey

	switch event.Type {
	case ALIAS_EVENT:
		return e.emitAlias(event)
	case SCALAR_EVENT:
		return e.emitScalar(event)
	case SEQUENCE_START_EVENT:
		return e.emitSequenceStart(event)
	case MAPPING_START_EVENT:
		return e.emitMappingStart(event)
	}
	return e.emitterError(
		fmt.Sprintf("expected SCALAR, SEQUENCE-START, MAPPING-START, or ALIAS, but got %v", event.Type))
}

func (e *Emitter) emitAlias(event *Event) error {
	if err := e.processAnchor(); err != nil {
		return err
	}
	e.popState()
	return nil
}

func (e *Emitter) emitScalar(event *Event) error {
	if err := e.selectScalarStyle(event); err != nil {
		return err
	}
	if err := e.processAnchor(); err != nil {
		return err
	}
	if err := e.processTag(); err != nil {
		return err
	}
	e.increaseIndent(true, false)
	if err := e.processScalar(); err != nil {
		return err
	}
	e.popIndent()
	e.popState()
	return nil
}

func (e *Emitter) emitSequenceStart(event *Event) error {
	if err := e.processAnchor(); err != nil {
		return err
	}
	if err := e.processTag(); err != nil {
		return err
	}
	if e.flowLevel > 0 || event.SequenceStyle() == FLOW_SEQUENCE_STYLE || e.checkEmptySequence() {
		e.state = emitFlowSequenceFirstItemState
	} else {
		e.state = emitBlockSequenceFirstItemState
	}
	return nil
}

func (e *Emitter) emitMappingStart(event *Event) error {
	if err := e.processAnchor(); err != nil {
		return err
	}
	if err := e.processTag(); err != nil {
		return err
	}
	if e.flowLevel > 0 || event.MappingStyle() == FLOW_MAPPING_STYLE || e.checkEmptyMapping() {
		e.state = emitFlowMappingFirstKeyState
	} else {
		e.state = emitBlockMappingFirstKeyState
	}
	return nil
}

func (e *Emitter) checkEmptySequence() bool {
	if len(e.events)-e.eventsHead < 2 {
		return false
	}
	return e.events[e.eventsHead].Type == SEQUENCE_START_EVENT &&
		e.events[e.eventsHead+1].Type == SEQUENCE_END_EVENT
}

func (e *Emitter) checkEmptyMapping() bool {
	if len(e.events)-e.eventsHead < 2 {
		return false
	}
	return e.events[e.eventsHead].Type == MAPPING_START_EVENT &&
		e.events[e.eventsHead+1].Type == MAPPING_END_EVENT
}

// checkSimpleKey reports whether the buffered key node is small enough to
// render before its ':' without an explicit '?' indicator.
func (e *Emitter) checkSimpleKey() bool {
	length := 0
	switch e.events[e.eventsHead].Type {
	case ALIAS_EVENT:
		length = len(e.anchorData.anchor)
	case SCALAR_EVENT:
		if e.scalarData.multiline {
			return false
		}
		length = len(e.anchorData.anchor) +
			len(e.tagData.handle) +
			len(e.tagData.suffix) +
			len(e.scalarData.value)
	case SEQUENCE_START_EVENT:
		if !e.checkEmptySequence() {
			return false
		}
		length = len(e.anchorData.anchor) + len(e.tagData.handle) + len(e.tagData.suffix)
	case MAPPING_START_EVENT:
		if !e.checkEmptyMapping() {
			return false
		}
		length = len(e.anchorData.anchor) + len(e.tagData.handle) + len(e.tagData.suffix)
	default:
		return false
	}
	return length <= 128
}

// selectScalarStyle settles the style a scalar is actually written in,
// falling back from the requested style when the content or the context
// forbids it.
func (e *Emitter) selectScalarStyle(event *Event) error {
	noTag := len(e.tagData.handle) == 0 && len(e.tagData.suffix) == 0
	if noTag && !event.Implicit && !event.QuotedImplicit {
		return e.emitterError("neither tag nor implicit flags are specified")
	}

	style := event.ScalarStyle()
	if style == ANY_SCALAR_STYLE {
		style = PLAIN_SCALAR_STYLE
	}
	if e.simpleKeyContext && e.scalarData.multiline {
		style = DOUBLE_QUOTED_SCALAR_STYLE
	}

	if style == PLAIN_SCALAR_STYLE {
		if e.flowLevel > 0 && !e.scalarData.flowPlainAllowed ||
			e.flowLevel == 0 && !e.scalarData.blockPlainAllowed {
			style = SINGLE_QUOTED_SCALAR_STYLE
		}
		if len(e.scalarData.value) == 0 && (e.flowLevel > 0 || e.simpleKeyContext) {
			style = SINGLE_QUOTED_SCALAR_STYLE
		}
		if noTag && !event.Implicit {
			style = SINGLE_QUOTED_SCALAR_STYLE
		}
	}
	if style == SINGLE_QUOTED_SCALAR_STYLE && !e.scalarData.singleQuotedAllowed {
		style = DOUBLE_QUOTED_SCALAR_STYLE
	}
	if style == LITERAL_SCALAR_STYLE || style == FOLDED_SCALAR_STYLE {
		if !e.scalarData.blockAllowed || e.flowLevel > 0 || e.simpleKeyContext {
			style = DOUBLE_QUOTED_SCALAR_STYLE
		}
	}

	// A non-plain rendering of a plain-implicit scalar needs the '!' tag to
	// keep the resolver from changing its meaning on re-parse.
	if noTag && !event.QuotedImplicit && style != PLAIN_SCALAR_STYLE {
		e.tagData.handle = "!"
	}
	e.scalarData.style = style
	return nil
}

func (e *Emitter) processAnchor() error {
	if e.anchorData.anchor == "" {
		return nil
	}
	indicator := "&"
	if e.anchorData.alias {
		indicator = "*"
	}
	if err := e.writeIndicator(indicator, true, false, false); err != nil {
		return err
	}
	return e.writeAnchor(e.anchorData.anchor)
}

func (e *Emitter) processTag() error {
	if len(e.tagData.handle) == 0 && len(e.tagData.suffix) == 0 {
		return nil
	}
	if len(e.tagData.handle) > 0 {
		if err := e.writeTagHandle(e.tagData.handle); err != nil {
			return err
		}
		if len(e.tagData.suffix) > 0 {
			return e.writeTagContent(e.tagData.suffix, false)
		}
		return nil
	}
	if err := e.writeIndicator("!<", true, false, false); err != nil {
		return err
	}
	if err := e.writeTagContent(e.tagData.suffix, false); err != nil {
		return err
	}
	return e.writeIndicator(">", false, false, false)
}

func (e *Emitter) processScalar() error {
	switch e.scalarData.style {
	case PLAIN_SCALAR_STYLE:
		return e.writePlainScalar(e.scalarData.value, !e.simpleKeyContext)
	case SINGLE_QUOTED_SCALAR_STYLE:
		return e.writeSingleQuotedScalar(e.scalarData.value, !e.simpleKeyContext)
	case DOUBLE_QUOTED_SCALAR_STYLE:
		return e.writeDoubleQuotedScalar(e.scalarData.value, !e.simpleKeyContext)
	case LITERAL_SCALAR_STYLE:
		return e.writeLiteralScalar(e.scalarData.value)
	case FOLDED_SCALAR_STYLE:
		return e.writeFoldedScalar(e.scalarData.value)
	}
	panic("unknown scalar style")
}

func (e *Emitter) analyzeTagDirective(dir TagDirective) error {
	handle := dir.Handle
	if len(handle) == 0 {
		return e.emitterError("tag handle must not be empty")
	}
	if handle[0] != '!' {
		return e.emitterError("tag handle must start with '!'")
	}
	if handle[len(handle)-1] != '!' {
		return e.emitterError("tag handle must end with '!'")
	}
	for i := 1; i < len(handle)-1; i++ {
		if !isAlpha(rune(handle[i])) {
			return e.emitterError("tag handle must contain alphanumerical characters only")
		}
	}
	if len(dir.Prefix) == 0 {
		return e.emitterError("tag prefix must not be empty")
	}
	return nil
}

func (e *Emitter) analyzeAnchor(anchor string, alias bool) error {
	what := "anchor"
	if alias {
		what = "alias"
	}
	if len(anchor) == 0 {
		return e.emitterError(what + " value must not be empty")
	}
	for _, c := range anchor {
		if !isAlpha(c) {
			return e.emitterError(what + " value must contain alphanumerical characters only")
		}
	}
	e.anchorData.anchor = anchor
	e.anchorData.alias = alias
	return nil
}

// analyzeTag splits a tag into the shortest shorthand form the active %TAG
// directives permit; if none matches, the tag is written verbatim.
func (e *Emitter) analyzeTag(tag string) error {
	if len(tag) == 0 {
		return e.emitterError("tag value must not be empty")
	}
	for _, dir := range e.tagDirectives {
		if len(tag) > len(dir.Prefix) && tag[:len(dir.Prefix)] == dir.Prefix {
			e.tagData.handle = dir.Handle
			e.tagData.suffix = tag[len(dir.Prefix):]
			return nil
		}
	}
	e.tagData.suffix = tag
	return nil
}

func (e *Emitter) analyzeEvent(event *Event) error {
	e.anchorData.anchor = ""
	e.tagData.handle = ""
	e.tagData.suffix = ""
	e.scalarData.value = ""

	switch event.Type {
	case ALIAS_EVENT:
		return e.analyzeAnchor(event.Anchor, true)
	case SCALAR_EVENT:
		if len(event.Anchor) > 0 {
			if err := e.analyzeAnchor(event.Anchor, false); err != nil {
				return err
			}
		}
		if len(event.Tag) > 0 && !event.Implicit && !event.QuotedImplicit {
			if err := e.analyzeTag(event.Tag); err != nil {
				return err
			}
		}
		e.analyzeScalar(event.Value)
	case SEQUENCE_START_EVENT, MAPPING_START_EVENT:
		if len(event.Anchor) > 0 {
			if err := e.analyzeAnchor(event.Anchor, false); err != nil {
				return err
			}
		}
		if len(event.Tag) > 0 && !event.Implicit {
			return e.analyzeTag(event.Tag)
		}
	}
	return nil
}

// Byte-position predicates over scalar content. The content is valid UTF-8,
// so classification can dispatch on the leading byte.

func widthAt(s string, i int) int {
	w := utf8Width(s[i])
	if w == 0 {
		return 1
	}
	return w
}

func spaceAt(s string, i int) bool {
	return i < len(s) && s[i] == ' '
}

func breakAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	switch s[i] {
	case '\n', '\r':
		return true
	case 0xC2:
		return i+1 < len(s) && s[i+1] == 0x85
	case 0xE2:
		return i+2 < len(s) && s[i+1] == 0x80 && (s[i+2] == 0xA8 || s[i+2] == 0xA9)
	}
	return false
}

func blankAt(s string, i int) bool {
	return i < len(s) && (s[i] == ' ' || s[i] == '\t')
}

func blankZAt(s string, i int) bool {
	return i >= len(s) || blankAt(s, i) || breakAt(s, i)
}

func asciiAt(s string, i int) bool {
	return s[i] < 0x80
}

func bomAt(s string, i int) bool {
	return i+2 < len(s) && s[i] == 0xEF && s[i+1] == 0xBB && s[i+2] == 0xBF
}

func printableAt(s string, i int) bool {
	c := decodeAt(s, i)
	switch {
	case c == '\t' || c == '\n' || c == '\r' || c == 0x85:
		return true
	case c >= 0x20 && c <= 0x7E:
		return true
	case c >= 0xA0 && c <= 0xD7FF && c != 0xFEFF:
		return true
	case c >= 0xE000 && c <= 0xFFFD && c != 0xFEFF:
		return true
	case c >= 0x10000 && c <= 0x10FFFF:
		return true
	}
	return false
}

// decodeAt decodes the codepoint starting at byte i.
func decodeAt(s string, i int) rune {
	w := widthAt(s, i)
	if w == 1 {
		return rune(s[i])
	}
	c := rune(s[i] & (0xFF >> uint(w)))
	for k := 1; k < w && i+k < len(s); k++ {
		c = c<<6 | rune(s[i+k]&0x3F)
	}
	return c
}

// analyzeScalar classifies the content against every style's constraints.
func (e *Emitter) analyzeScalar(value string) {
	var blockIndicators,
		flowIndicators,
		lineBreaks,
		specialCharacters,
		tabCharacters,

		leadingSpace,
		leadingBreak,
		trailingSpace,
		trailingBreak,
		breakSpace,
		spaceBreak,

		precededByWhitespace,
		followedByWhitespace,
		previousSpace,
		previousBreak bool

	e.scalarData.value = value

	if len(value) == 0 {
		e.scalarData.multiline = false
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = true
		e.scalarData.singleQuotedAllowed = true
		e.scalarData.blockAllowed = false
		return
	}

	if len(value) >= 3 && (value[:3] == "---" || value[:3] == "...") {
		blockIndicators = true
		flowIndicators = true
	}

	precededByWhitespace = true
	for i, w := 0, 0; i < len(value); i += w {
		w = widthAt(value, i)
		followedByWhitespace = i+w >= len(value) || blankZAt(value, i+w)

		if i == 0 {
			switch value[i] {
			case '#', ',', '[', ']', '{', '}', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`':
				flowIndicators = true
				blockIndicators = true
			case '?', ':':
				flowIndicators = true
				if followedByWhitespace {
					blockIndicators = true
				}
			case '-':
				if followedByWhitespace {
					flowIndicators = true
					blockIndicators = true
				}
			}
		} else {
			switch value[i] {
			case ',', '?', '[', ']', '{', '}':
				flowIndicators = true
			case ':':
				flowIndicators = true
				if followedByWhitespace {
					blockIndicators = true
				}
			case '#':
				if precededByWhitespace {
					flowIndicators = true
					blockIndicators = true
				}
			}
		}

		if value[i] == '\t' {
			tabCharacters = true
		} else if !printableAt(value, i) || !asciiAt(value, i) && !e.Unicode {
			specialCharacters = true
		}
		if spaceAt(value, i) {
			if i == 0 {
				leadingSpace = true
			}
			if i+w == len(value) {
				trailingSpace = true
			}
			if previousBreak {
				breakSpace = true
			}
			previousSpace = true
			previousBreak = false
		} else if breakAt(value, i) {
			lineBreaks = true
			if i == 0 {
				leadingBreak = true
			}
			if i+w == len(value) {
				trailingBreak = true
			}
			if previousSpace {
				spaceBreak = true
			}
			previousSpace = false
			previousBreak = true
		} else {
			previousSpace = false
			previousBreak = false
		}

		precededByWhitespace = blankZAt(value, i)
	}

	e.scalarData.multiline = lineBreaks
	e.scalarData.flowPlainAllowed = true
	e.scalarData.blockPlainAllowed = true
	e.scalarData.singleQuotedAllowed = true
	e.scalarData.blockAllowed = true

	if leadingSpace || leadingBreak || trailingSpace || trailingBreak {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
	}
	if trailingSpace {
		e.scalarData.blockAllowed = false
	}
	if breakSpace {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
		e.scalarData.singleQuotedAllowed = false
	}
	if spaceBreak || tabCharacters || specialCharacters {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
		e.scalarData.singleQuotedAllowed = false
	}
	if spaceBreak || specialCharacters {
		e.scalarData.blockAllowed = false
	}
	if lineBreaks {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
	}
	if flowIndicators {
		e.scalarData.flowPlainAllowed = false
	}
	if blockIndicators {
		e.scalarData.blockPlainAllowed = false
	}
}

// Low-level output.

func (e *Emitter) put(c byte) error {
	if err := e.writer.WriteByte(c); err != nil {
		return err
	}
	e.column++
	return nil
}

func (e *Emitter) putBreak() error {
	if err := e.writer.WriteByte('\n'); err != nil {
		return err
	}
	e.column = 0
	e.indention = true
	return nil
}

// writeAt copies the character at byte position *i of s to the output and
// advances *i past it.
func (e *Emitter) writeAt(s string, i *int) error {
	w := widthAt(s, *i)
	if err := e.writer.WriteString(s[*i : *i+w]); err != nil {
		return err
	}
	e.column++
	*i += w
	return nil
}

func (e *Emitter) writeString(s string) error {
	for i := 0; i < len(s); {
		if err := e.writeAt(s, &i); err != nil {
			return err
		}
	}
	return nil
}

// writeBreakAt copies a line break out of scalar content: '\n' becomes the
// output break, LS and PS are copied verbatim.
func (e *Emitter) writeBreakAt(s string, i *int) error {
	if s[*i] == '\n' {
		if err := e.putBreak(); err != nil {
			return err
		}
		*i++
		return nil
	}
	if err := e.writeAt(s, i); err != nil {
		return err
	}
	e.column = 0
	e.indention = true
	return nil
}

func (e *Emitter) writeIndent() error {
	indent := e.indent
	if indent < 0 {
		indent = 0
	}
	if !e.indention || e.column > indent || (e.column == indent && !e.whitespace) {
		if err := e.putBreak(); err != nil {
			return err
		}
	}
	for e.column < indent {
		if err := e.put(' '); err != nil {
			return err
		}
	}
	e.whitespace = true
	return nil
}

func (e *Emitter) writeIndicator(indicator string, needWhitespace, isWhitespace, isIndention bool) error {
	if needWhitespace && !e.whitespace {
		if err := e.put(' '); err != nil {
			return err
		}
	}
	if err := e.writeString(indicator); err != nil {
		return err
	}
	e.whitespace = isWhitespace
	e.indention = e.indention && isIndention
	e.openEnded = false
	return nil
}

func (e *Emitter) writeAnchor(value string) error {
	if err := e.writeString(value); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func (e *Emitter) writeTagHandle(value string) error {
	if !e.whitespace {
		if err := e.put(' '); err != nil {
			return err
		}
	}
	if err := e.writeString(value); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func (e *Emitter) writeTagContent(value string, needWhitespace bool) error {
	if needWhitespace && !e.whitespace {
		if err := e.put(' '); err != nil {
			return err
		}
	}
	for i := 0; i < len(value); {
		var plain bool
		switch value[i] {
		case ';', '/', '?', ':', '@', '&', '=', '+', '$', ',', '_', '.', '~', '*', '\'', '(', ')', '[', ']':
			plain = true
		default:
			plain = isAlpha(rune(value[i])) && value[i] < 0x80
		}
		if plain {
			if err := e.writeAt(value, &i); err != nil {
				return err
			}
			continue
		}
		// Anything else is %-escaped byte by byte.
		w := widthAt(value, i)
		for k := 0; k < w; k++ {
			if err := e.put('%'); err != nil {
				return err
			}
			if err := e.put(hexDigit(value[i] >> 4)); err != nil {
				return err
			}
			if err := e.put(hexDigit(value[i] & 0x0F)); err != nil {
				return err
			}
			i++
		}
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func hexDigit(v byte) byte {
	if v < 10 {
		return v + '0'
	}
	return v + 'A' - 10
}

func (e *Emitter) writePlainScalar(value string, allowBreaks bool) error {
	if len(value) > 0 && !e.whitespace {
		if err := e.put(' '); err != nil {
			return err
		}
	}

	spaces, breaks := false, false
	for i := 0; i < len(value); {
		switch {
		case spaceAt(value, i):
			if allowBreaks && !spaces && e.column > e.Width && !spaceAt(value, i+1) {
				if err := e.writeIndent(); err != nil {
					return err
				}
				i++
			} else if err := e.writeAt(value, &i); err != nil {
				return err
			}
			spaces = true
		case breakAt(value, i):
			if !breaks && value[i] == '\n' {
				if err := e.putBreak(); err != nil {
					return err
				}
			}
			if err := e.writeBreakAt(value, &i); err != nil {
				return err
			}
			breaks = true
		default:
			if breaks {
				if err := e.writeIndent(); err != nil {
					return err
				}
			}
			if err := e.writeAt(value, &i); err != nil {
				return err
			}
			e.indention = false
			spaces, breaks = false, false
		}
	}

	if len(value) > 0 {
		e.whitespace = false
	}
	e.indention = false
	if e.rootContext {
		e.openEnded = true
	}
	return nil
}

func (e *Emitter) writeSingleQuotedScalar(value string, allowBreaks bool) error {
	if err := e.writeIndicator("'", true, false, false); err != nil {
		return err
	}

	spaces, breaks := false, false
	for i := 0; i < len(value); {
		switch {
		case spaceAt(value, i):
			if allowBreaks && !spaces && e.column > e.Width &&
				i > 0 && i < len(value)-1 && !spaceAt(value, i+1) {
				if err := e.writeIndent(); err != nil {
					return err
				}
				i++
			} else if err := e.writeAt(value, &i); err != nil {
				return err
			}
			spaces = true
		case breakAt(value, i):
			if !breaks && value[i] == '\n' {
				if err := e.putBreak(); err != nil {
					return err
				}
			}
			if err := e.writeBreakAt(value, &i); err != nil {
				return err
			}
			breaks = true
		default:
			if breaks {
				if err := e.writeIndent(); err != nil {
					return err
				}
			}
			if value[i] == '\'' {
				if err := e.put('\''); err != nil {
					return err
				}
			}
			if err := e.writeAt(value, &i); err != nil {
				return err
			}
			e.indention = false
			spaces, breaks = false, false
		}
	}

	if err := e.writeIndicator("'", false, false, false); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func (e *Emitter) writeDoubleQuotedScalar(value string, allowBreaks bool) error {
	if err := e.writeIndicator("\"", true, false, false); err != nil {
		return err
	}

	spaces := false
	for i := 0; i < len(value); {
		if !printableAt(value, i) || !e.Unicode && !asciiAt(value, i) ||
			bomAt(value, i) || breakAt(value, i) ||
			value[i] == '"' || value[i] == '\\' {

			v := decodeAt(value, i)
			i += widthAt(value, i)

			if err := e.put('\\'); err != nil {
				return err
			}
			var err error
			switch v {
			case 0x00:
				err = e.put('0')
			case 0x07:
				err = e.put('a')
			case 0x08:
				err = e.put('b')
			case 0x09:
				err = e.put('t')
			case 0x0A:
				err = e.put('n')
			case 0x0B:
				err = e.put('v')
			case 0x0C:
				err = e.put('f')
			case 0x0D:
				err = e.put('r')
			case 0x1B:
				err = e.put('e')
			case 0x22:
				err = e.put('"')
			case 0x5C:
				err = e.put('\\')
			case 0x85:
				err = e.put('N')
			case 0xA0:
				err = e.put('_')
			case 0x2028:
				err = e.put('L')
			case 0x2029:
				err = e.put('P')
			default:
				var w int
				switch {
				case v <= 0xFF:
					err = e.put('x')
					w = 2
				case v <= 0xFFFF:
					err = e.put('u')
					w = 4
				default:
					err = e.put('U')
					w = 8
				}
				for k := (w - 1) * 4; err == nil && k >= 0; k -= 4 {
					err = e.put(hexDigit(byte(v >> uint(k) & 0x0F)))
				}
			}
			if err != nil {
				return err
			}
			spaces = false
		} else if spaceAt(value, i) {
			if allowBreaks && !spaces && e.column > e.Width && i > 0 && i < len(value)-1 {
				if err := e.writeIndent(); err != nil {
					return err
				}
				if spaceAt(value, i+1) {
					if err := e.put('\\'); err != nil {
						return err
					}
				}
				i++
			} else if err := e.writeAt(value, &i); err != nil {
				return err
			}
			spaces = true
		} else {
			if err := e.writeAt(value, &i); err != nil {
				return err
			}
			spaces = false
		}
	}

	if err := e.writeIndicator("\"", false, false, false); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

// writeBlockScalarHints writes the explicit indentation and chomping
// indicators a block scalar header needs to reproduce the content exactly.
func (e *Emitter) writeBlockScalarHints(value string) error {
	if len(value) > 0 && (blankAt(value, 0) || breakAt(value, 0)) {
		indentHint := string([]byte{'0' + byte(e.Indent)})
		if err := e.writeIndicator(indentHint, false, false, false); err != nil {
			return err
		}
	}

	e.openEnded = false

	var chompHint byte
	if len(value) == 0 {
		chompHint = '-'
	} else {
		i := len(value) - 1
		for value[i]&0xC0 == 0x80 {
			i--
		}
		if !breakAt(value, i) {
			chompHint = '-'
		} else if i == 0 {
			chompHint = '+'
			e.openEnded = true
		} else {
			i--
			for value[i]&0xC0 == 0x80 {
				i--
			}
			if breakAt(value, i) {
				chompHint = '+'
				e.openEnded = true
			}
		}
	}
	if chompHint != 0 {
		return e.writeIndicator(string([]byte{chompHint}), false, false, false)
	}
	return nil
}

func (e *Emitter) writeLiteralScalar(value string) error {
	if err := e.writeIndicator("|", true, false, false); err != nil {
		return err
	}
	if err := e.writeBlockScalarHints(value); err != nil {
		return err
	}
	if err := e.putBreak(); err != nil {
		return err
	}
	e.whitespace = true

	breaks := true
	for i := 0; i < len(value); {
		if breakAt(value, i) {
			if err := e.writeBreakAt(value, &i); err != nil {
				return err
			}
			breaks = true
		} else {
			if breaks {
				if err := e.writeIndent(); err != nil {
					return err
				}
			}
			if err := e.writeAt(value, &i); err != nil {
				return err
			}
			e.indention = false
			breaks = false
		}
	}
	return nil
}

func (e *Emitter) writeFoldedScalar(value string) error {
	if err := e.writeIndicator(">", true, false, false); err != nil {
		return err
	}
	if err := e.writeBlockScalarHints(value); err != nil {
		return err
	}
	if err := e.putBreak(); err != nil {
		return err
	}
	e.whitespace = true

	breaks := true
	leadingSpaces := true
	for i := 0; i < len(value); {
		if breakAt(value, i) {
			if !breaks && !leadingSpaces && value[i] == '\n' {
				k := i
				for breakAt(value, k) {
					k += widthAt(value, k)
				}
				if !blankZAt(value, k) {
					if err := e.putBreak(); err != nil {
						return err
					}
				}
			}
			if err := e.writeBreakAt(value, &i); err != nil {
				return err
			}
			breaks = true
		} else {
			if breaks {
				if err := e.writeIndent(); err != nil {
					return err
				}
				leadingSpaces = blankAt(value, i)
			}
			if !breaks && spaceAt(value, i) && !spaceAt(value, i+1) && e.column > e.Width {
				if err := e.writeIndent(); err != nil {
					return err
				}
				i++
			} else if err := e.writeAt(value, &i); err != nil {
				return err
			}
			e.indention = false
			breaks = false
		}
	}
	return nil
}
