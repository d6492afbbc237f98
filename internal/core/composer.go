// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// Composer stage: drives the parser's event stream and assembles each
// document into a node arena. Aliases are linked through an anchor table to
// the id of the node already built, so a document may contain cycles
// without the composer ever recursing into one.

package core

import "io"

// Composer builds Document values from a parsed event stream.
type Composer struct {
	parser   *Parser
	resolver Resolver

	event      Event // One event of lookahead.
	eventValid bool

	streamStarted bool
	streamEnded   bool
	err           error
}

// NewComposer reads the character stream from r.
func NewComposer(r io.Reader) *Composer {
	return &Composer{parser: NewParser(r), resolver: StandardResolver{}}
}

// NewComposerBytes composes an in-memory stream.
func NewComposerBytes(input []byte) *Composer {
	return &Composer{parser: NewParserBytes(input), resolver: StandardResolver{}}
}

// NewComposerFromParser composes the events produced by an existing parser.
func NewComposerFromParser(p *Parser) *Composer {
	return &Composer{parser: p, resolver: StandardResolver{}}
}

// SetResolver replaces the standard tag resolver.
func (c *Composer) SetResolver(r Resolver) {
	c.resolver = r
}

func (c *Composer) peekEvent() (*Event, error) {
	if !c.eventValid {
		if err := c.parser.Parse(&c.event); err != nil {
			return nil, err
		}
		c.eventValid = true
	}
	return &c.event, nil
}

func (c *Composer) skipEvent() {
	c.eventValid = false
}

// Compose builds the next document of the stream. It returns (nil, nil)
// once the stream is exhausted.
func (c *Composer) Compose() (*Document, error) {
	if c.err != nil {
		return nil, c.err
	}
	doc, err := c.compose()
	if err != nil {
		c.err = err
		return nil, err
	}
	return doc, nil
}

// ComposeSingle builds the only document of the stream, failing if another
// document follows it. An empty stream yields (nil, nil).
func (c *Composer) ComposeSingle() (*Document, error) {
	doc, err := c.Compose()
	if err != nil || doc == nil {
		return nil, err
	}
	event, err := c.peekEvent()
	if err != nil {
		c.err = err
		return nil, err
	}
	if event.Type != STREAM_END_EVENT {
		c.err = ComposerError{
			ContextMark:    doc.StartMark,
			ContextMessage: "while composing a single document",
			Mark:           event.StartMark,
			Message:        "expected a single document in the stream but found another document",
		}
		return nil, c.err
	}
	return doc, nil
}

func (c *Composer) compose() (*Document, error) {
	if !c.streamStarted {
		event, err := c.peekEvent()
		if err != nil {
			return nil, err
		}
		if event.Type != STREAM_START_EVENT {
			return nil, ComposerError{Mark: event.StartMark,
				Message: "did not find expected <stream-start> event"}
		}
		c.skipEvent()
		c.streamStarted = true
	}
	if c.streamEnded {
		return nil, nil
	}

	event, err := c.peekEvent()
	if err != nil {
		return nil, err
	}
	if event.Type == STREAM_END_EVENT {
		c.streamEnded = true
		c.skipEvent()
		return nil, nil
	}
	if event.Type != DOCUMENT_START_EVENT {
		return nil, ComposerError{Mark: event.StartMark,
			Message: "did not find expected <document-start> event"}
	}

	doc := &Document{
		VersionDirective: event.VersionDirective,
		TagDirectives:    append([]TagDirective(nil), event.TagDirectives...),
		StartImplicit:    event.Implicit,
		StartMark:        event.StartMark,
	}
	c.skipEvent()

	anchors := make(map[string]int)
	if _, err := c.composeNode(doc, anchors, nil); err != nil {
		return nil, err
	}

	event, err = c.peekEvent()
	if err != nil {
		return nil, err
	}
	if event.Type != DOCUMENT_END_EVENT {
		return nil, ComposerError{Mark: event.StartMark,
			Message: "did not find expected <document-end> event"}
	}
	doc.EndImplicit = event.Implicit
	doc.EndMark = event.EndMark
	c.skipEvent()
	return doc, nil
}

// composeNode builds the node at the head of the event stream and returns
// its id in the document's arena.
func (c *Composer) composeNode(doc *Document, anchors map[string]int, path []PathArc) (int, error) {
	event, err := c.peekEvent()
	if err != nil {
		return 0, err
	}
	switch event.Type {
	case ALIAS_EVENT:
		id, ok := anchors[event.Anchor]
		if !ok {
			return 0, ComposerError{Mark: event.StartMark,
				Message: "found undefined alias " + event.Anchor}
		}
		c.skipEvent()
		return id, nil
	case SCALAR_EVENT:
		return c.composeScalar(doc, anchors, path)
	case SEQUENCE_START_EVENT:
		return c.composeSequence(doc, anchors, path)
	case MAPPING_START_EVENT:
		return c.composeMapping(doc, anchors, path)
	}
	return 0, ComposerError{Mark: event.StartMark,
		Message: "did not find expected node content event"}
}

// resolveTag derives a specific tag for a node whose event carries a
// nonspecific one.
func (c *Composer) resolveTag(kind NodeKind, path []PathArc, tag, value string, implicit bool) (string, error) {
	if tag != "" && tag != "!" {
		return tag, nil
	}
	// The bare '!' tag pins scalars to str regardless of content.
	if tag == "!" {
		implicit = false
	}
	resolved, err := c.resolver.Resolve(kind, path, value, implicit)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func (c *Composer) composeScalar(doc *Document, anchors map[string]int, path []PathArc) (int, error) {
	event, _ := c.peekEvent()
	tag, err := c.resolveTag(SCALAR_NODE, path, event.Tag, event.Value, event.Implicit)
	if err != nil {
		return 0, composerResolveError(err, event.StartMark)
	}
	id := doc.AddScalar(tag, event.Value, event.ScalarStyle())
	doc.Nodes[id].Anchor = event.Anchor
	doc.Nodes[id].StartMark = event.StartMark
	doc.Nodes[id].EndMark = event.EndMark
	if event.Anchor != "" {
		anchors[event.Anchor] = id
	}
	c.skipEvent()
	return id, nil
}

func (c *Composer) composeSequence(doc *Document, anchors map[string]int, path []PathArc) (int, error) {
	event, _ := c.peekEvent()
	tag, err := c.resolveTag(SEQUENCE_NODE, path, event.Tag, "", event.Implicit)
	if err != nil {
		return 0, composerResolveError(err, event.StartMark)
	}
	id := doc.AddSequence(tag, event.SequenceStyle())
	doc.Nodes[id].Anchor = event.Anchor
	doc.Nodes[id].StartMark = event.StartMark
	// The anchor is visible to the children, which is what makes
	// `&a [*a]` compose into a self-referential node.
	if event.Anchor != "" {
		anchors[event.Anchor] = id
	}
	c.skipEvent()

	for index := 0; ; index++ {
		event, err := c.peekEvent()
		if err != nil {
			return 0, err
		}
		if event.Type == SEQUENCE_END_EVENT {
			doc.Nodes[id].EndMark = event.EndMark
			c.skipEvent()
			return id, nil
		}
		item, err := c.composeNode(doc, anchors,
			append(path, PathArc{Kind: SEQUENCE_ITEM_ARC, Index: index}))
		if err != nil {
			return 0, err
		}
		doc.Nodes[id].Items = append(doc.Nodes[id].Items, item)
	}
}

func (c *Composer) composeMapping(doc *Document, anchors map[string]int, path []PathArc) (int, error) {
	event, _ := c.peekEvent()
	tag, err := c.resolveTag(MAPPING_NODE, path, event.Tag, "", event.Implicit)
	if err != nil {
		return 0, composerResolveError(err, event.StartMark)
	}
	id := doc.AddMapping(tag, event.MappingStyle())
	doc.Nodes[id].Anchor = event.Anchor
	doc.Nodes[id].StartMark = event.StartMark
	if event.Anchor != "" {
		anchors[event.Anchor] = id
	}
	c.skipEvent()

	for {
		event, err := c.peekEvent()
		if err != nil {
			return 0, err
		}
		if event.Type == MAPPING_END_EVENT {
			doc.Nodes[id].EndMark = event.EndMark
			c.skipEvent()
			return id, nil
		}
		key, err := c.composeNode(doc, anchors,
			append(path, PathArc{Kind: MAPPING_KEY_ARC}))
		if err != nil {
			return 0, err
		}
		valueArc := PathArc{Kind: MAPPING_VALUE_ARC}
		if doc.Nodes[key].Kind == SCALAR_NODE {
			valueArc.Key = doc.Nodes[key].Value
		}
		value, err := c.composeNode(doc, anchors, append(path, valueArc))
		if err != nil {
			return 0, err
		}
		doc.Nodes[id].Pairs = append(doc.Nodes[id].Pairs, NodePair{Key: key, Value: value})
	}
}

// composerResolveError wraps a resolver failure with the node's position.
func composerResolveError(err error, mark Mark) error {
	if re, ok := err.(ResolverError); ok {
		return ComposerError{Mark: mark, Message: re.Problem}
	}
	return err
}
