package parser

import "fmt"

// ParseError reports a syntax error at a source position. Grounded in the
// teacher's pkg/parser/errors.go ParseError, extended with a column since
// this grammar's tokens track one.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func newParseError(line, column int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}
