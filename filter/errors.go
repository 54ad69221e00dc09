package filter

import (
	"errors"
	"fmt"
)

// SyntaxError reports a malformed filter. It is returned by Compile, before any record is evaluated.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("filter syntax error at position %d: %s", e.Pos, e.Msg)
}

// EvalError reports a failure while applying a compiled predicate to a record,
// such as a field missing from the record.
type EvalError struct {
	Expr string
	Msg  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("filter evaluation error in %s: %s", e.Expr, e.Msg)
}

func IsSyntaxErr(err error) bool {
	var sErr *SyntaxError
	return errors.As(err, &sErr)
}

func IsEvalErr(err error) bool {
	var eErr *EvalError
	return errors.As(err, &eErr)
}
