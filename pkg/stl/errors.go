package stl

import (
	"errors"
	"fmt"
	"strings"
)

// Parse and save errors. Callers match against these with errors.Is.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrEmptyInput       = errors.New("empty input")
	ErrInvalidExtension = errors.New("unsupported file extension")
	ErrStructural       = errors.New("malformed STL structure")
	ErrSizeMismatch     = errors.New("binary size mismatch")
	ErrTooManyTriangles = errors.New("triangle count exceeds limit")
	ErrInvalidNumeric   = errors.New("non-finite coordinate")
	ErrNoTriangles      = errors.New("no triangles found")
	ErrAmbiguousFormat  = errors.New("format could not be determined")
	ErrUnknownFormat    = errors.New("unknown model format")
	ErrIO               = errors.New("i/o failure")
)

// ParseError describes a parse or save failure. Err is one of the
// sentinel errors above (or a context error for cancellation), Line is
// the 1-based source line for ASCII structural errors (0 when not
// applicable) and Msg carries additional diagnostic detail.
type ParseError struct {
	Source string
	Line   int
	Err    error
	Msg    string
}

// Error composes the source, line and detail into a single message.
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Err.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Unwrap exposes the underlying sentinel for errors.Is matching.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseErr builds a ParseError without a line number.
func parseErr(source string, sentinel error, format string, args ...any) *ParseError {
	return &ParseError{Source: source, Err: sentinel, Msg: fmt.Sprintf(format, args...)}
}

// lineErr builds a ParseError carrying a 1-based line number.
func lineErr(source string, line int, sentinel error, format string, args ...any) *ParseError {
	return &ParseError{Source: source, Line: line, Err: sentinel, Msg: fmt.Sprintf(format, args...)}
}
