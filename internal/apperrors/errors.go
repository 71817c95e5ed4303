package apperrors

import "fmt"

// ExtractionError is returned when the tracks assignment cannot be found in a page.
type ExtractionError struct {
	Identifier string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no %q array found in page (page format changed or wrong URL)", e.Identifier)
}

// Is allows for error checking with errors.Is().
func (e *ExtractionError) Is(target error) bool {
	_, ok := target.(*ExtractionError)
	return ok
}

// ParseError is returned when the embedded array literal is not valid JSON5.
type ParseError struct {
	Offset int
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid tracks literal at offset %d: %s", e.Offset, e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ParseError) Is(target error) bool {
	_, ok := target.(*ParseError)
	return ok
}

// SchemaError is returned when a track record lacks a title or path field.
type SchemaError struct {
	Index int // Position in the raw array, including the dropped metadata record
	Field string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("track %d is missing required field %q", e.Index, e.Field)
}

// Is allows for error checking with errors.Is().
func (e *SchemaError) Is(target error) bool {
	_, ok := target.(*SchemaError)
	return ok
}

// MirrorUnreachable wraps a network-level failure against one mirror.
type MirrorUnreachable struct {
	Mirror string
	Err    error
}

// Error implements the error interface.
func (e *MirrorUnreachable) Error() string {
	return fmt.Sprintf("mirror %s unreachable: %v", e.Mirror, e.Err)
}

// Unwrap returns the underlying network error.
func (e *MirrorUnreachable) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *MirrorUnreachable) Is(target error) bool {
	_, ok := target.(*MirrorUnreachable)
	return ok
}

// ChapterDownloadFailed is returned when no mirror could deliver a chapter,
// or when writing the chapter to disk failed.
type ChapterDownloadFailed struct {
	Chapter    string
	LastStatus int    // Status of the last non-success response, 0 if none was received
	LastBody   string // Body of the last non-success response
	Err        error
}

// Error implements the error interface.
func (e *ChapterDownloadFailed) Error() string {
	msg := fmt.Sprintf("failed to download chapter %q", e.Chapter)
	if e.LastStatus != 0 {
		msg = fmt.Sprintf("%s (last status %d)", msg, e.LastStatus)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the last underlying error.
func (e *ChapterDownloadFailed) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ChapterDownloadFailed) Is(target error) bool {
	_, ok := target.(*ChapterDownloadFailed)
	return ok
}

// ErrUnexpectedStatus is returned when a page fetch answers with a non-200 status.
type ErrUnexpectedStatus struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnexpectedStatus) Is(target error) bool {
	_, ok := target.(*ErrUnexpectedStatus)
	return ok
}

// Retryable reports whether the status indicates a transient server failure.
func (e *ErrUnexpectedStatus) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
