package conversion

import "errors"

// Error classifies a failure of the PDF conversion pipeline distinctly from
// generic failures, so callers can show an actionable message. The original
// cause is preserved for logging and errors.Is/As chains.
type Error struct {
	msg   string
	cause error
}

func NewError(msg string, cause error) *Error {
	return &Error{msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Message returns the user-facing description without the underlying cause.
func (e *Error) Message() string {
	return e.msg
}

// AsError unwraps err into a conversion Error if it carries one.
func AsError(err error) (*Error, bool) {
	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr, true
	}
	return nil, false
}
