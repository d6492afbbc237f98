// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package yamlkit is a streaming YAML 1.1 processor. It reads YAML text
// into document graphs and writes document graphs back out as YAML text,
// preserving anchors, aliases (including cycles), tags, and directives.
//
// The public surface here is intentionally small. Each pipeline stage —
// scanner, parser, composer, serializer, emitter — is also available from
// this package for callers that want to work at the token or event level.
package yamlkit

import (
	"io"

	"github.com/yamlkit/yamlkit/internal/core"
)

// Re-exported engine types. The facade adds no state of its own.
type (
	Mark     = core.Mark
	Token    = core.Token
	Event    = core.Event
	Node     = core.Node
	NodePair = core.NodePair
	Document = core.Document

	TokenType = core.TokenType
	EventType = core.EventType
	NodeKind  = core.NodeKind

	Style         = core.Style
	ScalarStyle   = core.ScalarStyle
	SequenceStyle = core.SequenceStyle
	MappingStyle  = core.MappingStyle

	VersionDirective = core.VersionDirective
	TagDirective     = core.TagDirective

	Resolver = core.Resolver
	PathArc  = core.PathArc

	Scanner    = core.Scanner
	Parser     = core.Parser
	Composer   = core.Composer
	Serializer = core.Serializer
	Emitter    = core.Emitter

	ReaderError   = core.ReaderError
	ScannerError  = core.ScannerError
	ParserError   = core.ParserError
	ComposerError = core.ComposerError
	ResolverError = core.ResolverError
	EmitterError  = core.EmitterError
	WriterError   = core.WriterError
)

const (
	ScalarNode   = core.SCALAR_NODE
	SequenceNode = core.SEQUENCE_NODE
	MappingNode  = core.MAPPING_NODE
)

// NewScanner tokenizes YAML text from r.
func NewScanner(r io.Reader) *Scanner { return core.NewScanner(r) }

// NewParser parses YAML text from r into an event stream.
func NewParser(r io.Reader) *Parser { return core.NewParser(r) }

// NewComposer composes YAML text from r into document graphs.
func NewComposer(r io.Reader) *Composer { return core.NewComposer(r) }

// NewSerializer writes document graphs to w as YAML text.
func NewSerializer(w io.Writer) *Serializer { return core.NewSerializer(w) }

// NewEmitter writes an event stream to w as YAML text.
func NewEmitter(w io.Writer) *Emitter { return core.NewEmitter(w) }

// Load composes the first document of the input. It returns nil for an
// empty stream.
func Load(data []byte) (*Document, error) {
	return core.NewComposerBytes(data).Compose()
}

// LoadSingle composes the only document of the input, failing if the
// stream contains more than one.
func LoadSingle(data []byte) (*Document, error) {
	return core.NewComposerBytes(data).ComposeSingle()
}

// LoadAll composes every document of the input.
func LoadAll(data []byte) ([]*Document, error) {
	composer := core.NewComposerBytes(data)
	var docs []*Document
	for {
		doc, err := composer.Compose()
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return docs, nil
		}
		docs = append(docs, doc)
	}
}

// DumpOptions adjusts the text Dump and DumpAll produce.
type DumpOptions struct {
	// Indent is the number of spaces per nesting level, 2 to 9.
	// Values outside that range fall back to 2.
	Indent int
	// Width is the preferred line width. Zero means the default (80);
	// negative disables folding.
	Width int
	// Resolver overrides the tag resolver used to decide which tags can
	// be left implicit. Nil means the standard YAML 1.1 resolver.
	Resolver Resolver
}

func newConfiguredSerializer(w io.Writer, opts *DumpOptions) *Serializer {
	s := core.NewSerializer(w)
	if opts == nil {
		return s
	}
	if opts.Indent != 0 {
		s.Emitter().Indent = opts.Indent
	}
	if opts.Width != 0 {
		s.Emitter().Width = opts.Width
	}
	if opts.Resolver != nil {
		s.SetResolver(opts.Resolver)
	}
	return s
}

// Dump writes one document to w. A nil opts uses the defaults.
func Dump(w io.Writer, doc *Document, opts *DumpOptions) error {
	serializer := newConfiguredSerializer(w, opts)
	if err := serializer.Serialize(doc); err != nil {
		return err
	}
	return serializer.Close()
}

// DumpAll writes each document to w in order, as one multi-document stream.
func DumpAll(w io.Writer, docs []*Document, opts *DumpOptions) error {
	serializer := newConfiguredSerializer(w, opts)
	for _, doc := range docs {
		if err := serializer.Serialize(doc); err != nil {
			return err
		}
	}
	return serializer.Close()
}
