package domain

import "fmt"

// ParseError indicates a dataset file that is not valid JSON. The
// loader logs it and skips the file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError indicates a dataset file that is valid JSON but does not
// match the expected export shape. The loader logs it and skips the
// file.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
}

// LayoutError indicates a builder invariant violation during spatial
// computation. Unlike per-file load errors it is fatal for the session.
type LayoutError struct {
	NodeID string
	Reason string
}

func (e *LayoutError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("layout: node %s: %s", e.NodeID, e.Reason)
	}
	return "layout: " + e.Reason
}
