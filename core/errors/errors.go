// Package errors provides the error taxonomy for the sqlitecat decoder.
//
// Every failure is reported as one of the sentinel kinds below, usually
// wrapped in a typed error that carries the context needed to diagnose it
// without re-running (file, page number, byte offset, table, column).
// Callers test kinds with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Generic sentinels shared with the rest of the codebase.
var (
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// Open-time kinds.
var (
	ErrFileNotFound         = errors.New("file not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTooSmallForHeader    = errors.New("file too small for database header")
	ErrInvalidMagic         = errors.New("invalid database header magic")
	ErrInvalidPageSize      = errors.New("invalid page size")
	ErrTooSmallForFirstPage = errors.New("file too small for first page")
)

// Pager kinds.
var (
	ErrInvalidPageNumber = errors.New("invalid page number")
	ErrBufferSize        = errors.New("buffer size does not match page size")
	ErrPageOutOfRange    = errors.New("page beyond read limit")
	ErrUnexpectedEOF     = errors.New("unexpected end of file")
)

// Decode-time kinds.
var (
	ErrInvalidPageType          = errors.New("invalid page type")
	ErrHeaderTooShort           = errors.New("page header too short")
	ErrCellPointerOutOfBounds   = errors.New("cell pointer out of bounds")
	ErrTruncatedVarint          = errors.New("truncated varint")
	ErrReservedSerialType       = errors.New("reserved serial type")
	ErrOverflowNotSupported     = errors.New("overflow pages not supported")
	ErrRecordHeaderInconsistent = errors.New("record header inconsistent")
	ErrUnsupportedPageKind      = errors.New("unsupported page kind")
	ErrTreeTooDeep              = errors.New("b-tree too deep")
	ErrPageCycle                = errors.New("b-tree page reached twice")
)

// Query-time kinds.
var (
	ErrTableNotFound          = errors.New("table not found")
	ErrSchemaMismatch         = errors.New("schema mismatch")
	ErrColumnNotFound         = errors.New("column not found")
	ErrColumnIndexOutOfBounds = errors.New("column index out of bounds")
	ErrUnsupportedColumnType  = errors.New("unsupported column type")
	ErrInvalidUTF8            = errors.New("invalid utf-8")
	ErrInvalidUTF16           = errors.New("invalid utf-16")
	ErrExpectedLeafPage       = errors.New("expected leaf page")
	ErrExpectedTablePage      = errors.New("expected table page")
	ErrUnsupportedStatement   = errors.New("unsupported statement")
)

// OpenError represents a failure to open a database file
type OpenError struct {
	Path string // File path being opened
	Err  error  // Underlying error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// DecodeError represents a failure to decode on-disk bytes.
// Page is 0 when the failure is not tied to a page (e.g. the file header),
// and Offset is -1 when no byte offset applies.
type DecodeError struct {
	File   string // Database file name, if known
	Page   uint32 // 1-based page number
	Offset int    // Byte offset within the page buffer
	Err    error  // Underlying error
}

func (e *DecodeError) Error() string {
	msg := ""
	if e.File != "" {
		msg = e.File + ": "
	}
	if e.Page != 0 {
		msg += fmt.Sprintf("page %d: ", e.Page)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf("offset %d: ", e.Offset)
	}
	return msg + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// QueryError represents a failure to resolve or execute a statement
type QueryError struct {
	Table  string // Table named by the statement
	Column string // Column involved, if any
	Err    error  // Underlying error
}

func (e *QueryError) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("table %q column %q: %v", e.Table, e.Column, e.Err)
	case e.Table != "":
		return fmt.Sprintf("table %q: %v", e.Table, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing error for SQL or DDL text
type ParseError struct {
	Format  string // Format being parsed (e.g., "SQL", "CREATE TABLE")
	Input   string // Text being parsed
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("failed to parse %s %q: %s", e.Format, e.Input, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewDecode creates a DecodeError for a page and offset.
func NewDecode(page uint32, offset int, err error) *DecodeError {
	return &DecodeError{
		Page:   page,
		Offset: offset,
		Err:    err,
	}
}

// NewQuery creates a QueryError
func NewQuery(table, column string, err error) *QueryError {
	return &QueryError{
		Table:  table,
		Column: column,
		Err:    err,
	}
}

// NewParse creates a ParseError
func NewParse(format, input, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Input:   input,
		Message: message,
		Err:     err,
	}
}

// WithFile stamps file into the first DecodeError found in err's chain if it
// does not name a file yet. Other errors are returned unchanged.
func WithFile(err error, file string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.File == "" {
		de.File = file
	}
	return err
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
