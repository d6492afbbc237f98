// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// The document graph: an append-only arena of nodes addressed by integer
// id. Children reference other nodes by id, never by pointer, so a node may
// reach itself through an alias cycle without any special casing.

package core

import "fmt"

// NodeKind discriminates the three node variants.
type NodeKind int

const (
	NO_NODE NodeKind = iota
	SCALAR_NODE
	SEQUENCE_NODE
	MAPPING_NODE
)

var nodeKindStrings = []string{
	NO_NODE:       "NO_NODE",
	SCALAR_NODE:   "SCALAR_NODE",
	SEQUENCE_NODE: "SEQUENCE_NODE",
	MAPPING_NODE:  "MAPPING_NODE",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindStrings) {
		return nodeKindStrings[k]
	}
	return fmt.Sprintf("unknown node kind %d", int(k))
}

// NodePair is one key/value entry of a mapping node. Pair order is
// presentation order, not a semantic property.
type NodePair struct {
	Key   int
	Value int
}

// Node is one vertex of the document graph. Tag is always non-empty once
// the node has been resolved. Exactly one payload group is meaningful,
// selected by Kind.
type Node struct {
	Kind   NodeKind
	Tag    string
	Anchor string

	// SCALAR_NODE payload.
	Value string

	// SEQUENCE_NODE payload: ids of the item nodes.
	Items []int

	// MAPPING_NODE payload: ids of the key and value nodes.
	Pairs []NodePair

	Style Style

	StartMark Mark
	EndMark   Mark
}

// ScalarStyle returns the node style as a scalar style.
func (n *Node) ScalarStyle() ScalarStyle { return ScalarStyle(n.Style) }

// SequenceStyle returns the node style as a sequence style.
func (n *Node) SequenceStyle() SequenceStyle { return SequenceStyle(n.Style) }

// MappingStyle returns the node style as a mapping style.
func (n *Node) MappingStyle() MappingStyle { return MappingStyle(n.Style) }

// Document holds one composed document: its node arena plus the directives
// and marks of the document as a whole. The root node, if any, has id 0.
type Document struct {
	Nodes []Node

	VersionDirective *VersionDirective
	TagDirectives    []TagDirective

	// The document was not opened with '---' / closed with '...'.
	StartImplicit bool
	EndImplicit   bool

	StartMark Mark
	EndMark   Mark
}

// Root returns the root node, or nil for an empty document.
func (d *Document) Root() *Node {
	if len(d.Nodes) == 0 {
		return nil
	}
	return &d.Nodes[0]
}

// Node returns the node with the given id. Negative ids count back from the
// end of the arena, so Node(-1) is the most recently added node.
func (d *Document) Node(id int) (*Node, error) {
	adjusted := id
	if adjusted < 0 {
		adjusted += len(d.Nodes)
	}
	if adjusted < 0 || adjusted >= len(d.Nodes) {
		return nil, fmt.Errorf("yaml: no node with id %d in a document of %d nodes", id, len(d.Nodes))
	}
	return &d.Nodes[adjusted], nil
}

// resolveID adjusts a possibly-negative node id, reporting whether it is in
// range.
func (d *Document) resolveID(id int) (int, error) {
	if id < 0 {
		id += len(d.Nodes)
	}
	if id < 0 || id >= len(d.Nodes) {
		return 0, fmt.Errorf("yaml: no node with id %d in a document of %d nodes", id, len(d.Nodes))
	}
	return id, nil
}

// add appends a node and returns its id.
func (d *Document) add(node Node) int {
	d.Nodes = append(d.Nodes, node)
	return len(d.Nodes) - 1
}

// AddScalar appends a scalar node. An empty tag defaults to the
// tag:yaml.org,2002:str tag.
func (d *Document) AddScalar(tag, value string, style ScalarStyle) int {
	if tag == "" {
		tag = DEFAULT_SCALAR_TAG
	}
	return d.add(Node{
		Kind:  SCALAR_NODE,
		Tag:   tag,
		Value: value,
		Style: Style(style),
	})
}

// AddSequence appends an empty sequence node. An empty tag defaults to the
// tag:yaml.org,2002:seq tag.
func (d *Document) AddSequence(tag string, style SequenceStyle) int {
	if tag == "" {
		tag = DEFAULT_SEQUENCE_TAG
	}
	return d.add(Node{
		Kind:  SEQUENCE_NODE,
		Tag:   tag,
		Style: Style(style),
	})
}

// AddMapping appends an empty mapping node. An empty tag defaults to the
// tag:yaml.org,2002:map tag.
func (d *Document) AddMapping(tag string, style MappingStyle) int {
	if tag == "" {
		tag = DEFAULT_MAPPING_TAG
	}
	return d.add(Node{
		Kind:  MAPPING_NODE,
		Tag:   tag,
		Style: Style(style),
	})
}

// AppendSequenceItem appends the item node to the sequence node.
func (d *Document) AppendSequenceItem(sequence, item int) error {
	sequence, err := d.resolveID(sequence)
	if err != nil {
		return err
	}
	if item, err = d.resolveID(item); err != nil {
		return err
	}
	if d.Nodes[sequence].Kind != SEQUENCE_NODE {
		return fmt.Errorf("yaml: node %d is not a sequence node", sequence)
	}
	d.Nodes[sequence].Items = append(d.Nodes[sequence].Items, item)
	return nil
}

// AppendMappingPair appends the key/value pair to the mapping node.
func (d *Document) AppendMappingPair(mapping, key, value int) error {
	mapping, err := d.resolveID(mapping)
	if err != nil {
		return err
	}
	if key, err = d.resolveID(key); err != nil {
		return err
	}
	if value, err = d.resolveID(value); err != nil {
		return err
	}
	if d.Nodes[mapping].Kind != MAPPING_NODE {
		return fmt.Errorf("yaml: node %d is not a mapping node", mapping)
	}
	d.Nodes[mapping].Pairs = append(d.Nodes[mapping].Pairs, NodePair{Key: key, Value: value})
	return nil
}
