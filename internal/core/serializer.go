// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// Serializer stage: the inverse of the composer. It walks a document graph
// and replays it as the event stream the emitter consumes. Nodes referenced
// more than once (including through cycles) get an anchor on first emission
// and an alias afterwards, so the text round-trips to an equal graph.

package core

import (
	"fmt"
	"io"
)

// Serializer turns documents into YAML text through an Emitter. Serialize
// may be called once per document; Close ends the stream.
type Serializer struct {
	emitter  *Emitter
	resolver Resolver

	streamStarted bool
	closed        bool

	// Per-document state.
	anchors    map[int]string
	serialized map[int]bool
	lastAnchor int

	path []PathArc

	err error
}

// NewSerializer writes to w using the standard resolver for tag elision.
func NewSerializer(w io.Writer) *Serializer {
	return &Serializer{
		emitter:  NewEmitter(w),
		resolver: StandardResolver{},
	}
}

// SetResolver replaces the resolver consulted when deciding whether a tag
// can be left implicit. It must match the resolver the reading side uses,
// or tags will be elided that the reader cannot reconstruct.
func (s *Serializer) SetResolver(r Resolver) {
	s.resolver = r
}

// Emitter exposes the underlying emitter so output knobs (indent, width)
// can be adjusted before the first Serialize call.
func (s *Serializer) Emitter() *Emitter {
	return s.emitter
}

func (s *Serializer) emit(event Event) error {
	return s.emitter.Emit(&event)
}

// Serialize emits one document.
func (s *Serializer) Serialize(doc *Document) error {
	if s.err != nil {
		return s.err
	}
	if s.closed {
		s.err = EmitterError{Problem: "serializer is closed"}
		return s.err
	}
	if err := s.serialize(doc); err != nil {
		s.err = err
	}
	return s.err
}

// Close emits the STREAM-END event and flushes the output.
func (s *Serializer) Close() error {
	if s.err != nil {
		return s.err
	}
	if s.closed {
		return nil
	}
	if !s.streamStarted {
		if err := s.emit(NewStreamStartEvent(UTF8_ENCODING)); err != nil {
			s.err = err
			return s.err
		}
	}
	// A plain root scalar leaves the stream open ended, which would force a
	// trailing '...'; the stream end closes it without one.
	s.emitter.openEnded = false
	if err := s.emit(NewStreamEndEvent()); err != nil {
		s.err = err
		return s.err
	}
	s.closed = true
	return nil
}

func (s *Serializer) serialize(doc *Document) error {
	if !s.streamStarted {
		if err := s.emit(NewStreamStartEvent(UTF8_ENCODING)); err != nil {
			return err
		}
		s.streamStarted = true
	}

	s.anchors = make(map[int]string)
	s.serialized = make(map[int]bool)
	s.lastAnchor = 0
	s.path = s.path[:0]

	if len(doc.Nodes) > 0 {
		refs := make(map[int]int, len(doc.Nodes))
		s.countReferences(doc, 0, refs)
		// Arena order is creation order, so generated names are stable.
		for id := range doc.Nodes {
			node := &doc.Nodes[id]
			switch {
			case refs[id] == 0:
			case node.Anchor != "":
				s.anchors[id] = node.Anchor
			case refs[id] > 1:
				s.lastAnchor++
				s.anchors[id] = fmt.Sprintf("a%d", s.lastAnchor)
			}
		}
	}

	implicit := doc.StartImplicit
	if err := s.emit(NewDocumentStartEvent(doc.VersionDirective, doc.TagDirectives, implicit)); err != nil {
		return err
	}
	if len(doc.Nodes) > 0 {
		if err := s.serializeNode(doc, 0); err != nil {
			return err
		}
	}
	return s.emit(NewDocumentEndEvent(doc.EndImplicit))
}

// countReferences walks the graph once and records how often each node is
// reachable. A node revisited during its own walk is a cycle and counts
// twice immediately, so the recursion does not follow it again.
func (s *Serializer) countReferences(doc *Document, id int, refs map[int]int) {
	refs[id]++
	if refs[id] > 1 {
		return
	}
	node := &doc.Nodes[id]
	switch node.Kind {
	case SEQUENCE_NODE:
		for _, item := range node.Items {
			s.countReferences(doc, item, refs)
		}
	case MAPPING_NODE:
		for _, pair := range node.Pairs {
			s.countReferences(doc, pair.Key, refs)
			s.countReferences(doc, pair.Value, refs)
		}
	}
}

func (s *Serializer) serializeNode(doc *Document, id int) error {
	node := &doc.Nodes[id]
	anchor := s.anchors[id]

	if s.serialized[id] {
		if anchor == "" {
			return EmitterError{Problem: "cannot alias a node that has no anchor"}
		}
		return s.emit(NewAliasEvent(anchor))
	}
	s.serialized[id] = true

	switch node.Kind {
	case SCALAR_NODE:
		return s.serializeScalar(doc, node, anchor)
	case SEQUENCE_NODE:
		return s.serializeSequence(doc, node, anchor)
	case MAPPING_NODE:
		return s.serializeMapping(doc, node, anchor)
	}
	return EmitterError{Problem: fmt.Sprintf("cannot serialize a node of kind %v", node.Kind)}
}

func (s *Serializer) serializeScalar(doc *Document, node *Node, anchor string) error {
	plainTag, err := s.resolver.Resolve(SCALAR_NODE, s.path, node.Value, true)
	if err != nil {
		return err
	}
	quotedTag, err := s.resolver.Resolve(SCALAR_NODE, s.path, node.Value, false)
	if err != nil {
		return err
	}
	plainImplicit := plainTag == node.Tag
	quotedImplicit := quotedTag == node.Tag

	return s.emit(NewScalarEvent(anchor, node.Tag, node.Value,
		plainImplicit, quotedImplicit, node.ScalarStyle()))
}

// collectionImplicit reports whether the node's tag is what the resolver
// infers for an untagged collection, and so may be left off the output.
func (s *Serializer) collectionImplicit(node *Node) (bool, error) {
	tag, err := s.resolver.Resolve(node.Kind, s.path, "", true)
	if err != nil {
		return false, err
	}
	return tag == node.Tag, nil
}

func (s *Serializer) serializeSequence(doc *Document, node *Node, anchor string) error {
	implicit, err := s.collectionImplicit(node)
	if err != nil {
		return err
	}
	if err := s.emit(NewSequenceStartEvent(anchor, node.Tag, implicit, node.SequenceStyle())); err != nil {
		return err
	}
	for i, item := range node.Items {
		s.path = append(s.path, PathArc{Kind: SEQUENCE_ITEM_ARC, Index: i})
		if err := s.serializeNode(doc, item); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	return s.emit(NewSequenceEndEvent())
}

func (s *Serializer) serializeMapping(doc *Document, node *Node, anchor string) error {
	implicit, err := s.collectionImplicit(node)
	if err != nil {
		return err
	}
	if err := s.emit(NewMappingStartEvent(anchor, node.Tag, implicit, node.MappingStyle())); err != nil {
		return err
	}
	for _, pair := range node.Pairs {
		s.path = append(s.path, PathArc{Kind: MAPPING_KEY_ARC})
		if err := s.serializeNode(doc, pair.Key); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]

		arc := PathArc{Kind: MAPPING_VALUE_ARC}
		if key := &doc.Nodes[pair.Key]; key.Kind == SCALAR_NODE {
			arc.Key = key.Value
		}
		s.path = append(s.path, arc)
		if err := s.serializeNode(doc, pair.Value); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	return s.emit(NewMappingEndEvent())
}
