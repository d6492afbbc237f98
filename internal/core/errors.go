// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0

// Error types for the processing stages.
// Every stage reports failures through a typed error value carrying the
// problem position; once a stage has failed it stays failed until the owning
// object is discarded.

package core

import (
	"fmt"
	"strings"
)

// MarkedError is the common shape of scanner and parser errors: a problem
// message with its mark, optionally wrapped in the context of the enclosing
// construct.
type MarkedError struct {
	// Optional context.
	ContextMark    Mark
	ContextMessage string

	Mark    Mark
	Message string
}

func (e MarkedError) Error() string {
	var b strings.Builder
	b.WriteString("yaml: ")
	if len(e.ContextMessage) > 0 {
		fmt.Fprintf(&b, "%s at %s: ", e.ContextMessage, e.ContextMark)
	}
	if len(e.ContextMessage) == 0 || e.ContextMark != e.Mark {
		fmt.Fprintf(&b, "%s: ", e.Mark)
	}
	b.WriteString(e.Message)
	return b.String()
}

// ScannerError reports a lexical violation.
type ScannerError MarkedError

func (e ScannerError) Error() string {
	return MarkedError(e).Error()
}

// ParserError reports a grammar violation.
type ParserError MarkedError

func (e ParserError) Error() string {
	return MarkedError(e).Error()
}

// ComposerError reports a failure while assembling the document graph,
// such as an alias to an anchor that was never defined.
type ComposerError MarkedError

func (e ComposerError) Error() string {
	return MarkedError(e).Error()
}

// ReaderError reports a malformed byte source. Offset is the byte offset of
// the offending data; Value is the offending codepoint or byte when known.
type ReaderError struct {
	Offset  int
	Value   int
	Problem string
}

func (e ReaderError) Error() string {
	if e.Value >= 0 {
		return fmt.Sprintf("yaml: input error at byte %d (#%x): %s", e.Offset, e.Value, e.Problem)
	}
	return fmt.Sprintf("yaml: input error at byte %d: %s", e.Offset, e.Problem)
}

// ResolverError reports a tag resolver failure.
type ResolverError struct {
	Problem string
}

func (e ResolverError) Error() string {
	return "yaml: " + e.Problem
}

// EmitterError reports a failure while turning events into text.
type EmitterError struct {
	Problem string
}

func (e EmitterError) Error() string {
	return "yaml: " + e.Problem
}

// WriterError wraps a failure of the output sink.
type WriterError struct {
	Err error
}

func (e WriterError) Error() string {
	return fmt.Sprintf("yaml: %s", e.Err)
}

func (e WriterError) Unwrap() error {
	return e.Err
}
