// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
const (
	FieldError = "error"
	FieldFile  = "file"
	FieldLine  = "line"
	FieldCol   = "column"

	FieldDocuments = "documents"
	FieldNodes     = "nodes"
	FieldTokens    = "tokens"
	FieldEvents    = "events"

	FieldIndent = "indent"
	FieldWidth  = "width"

	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
