package types

import "fmt"

// ErrorCode identifies a convgen error category.
type ErrorCode string

// Error codes, grouped by pipeline stage. Normalization never produces an
// error (an unmatched shape is simply left raw), so the N group is empty by
// design and the first failures appear at generation time.
const (
	// G0xxx: generation errors
	ErrMissingContent       ErrorCode = "G0101"
	ErrInvalidNumber        ErrorCode = "G0102"
	ErrWrongArity           ErrorCode = "G0201"
	ErrUnsupportedToken     ErrorCode = "G0301"
	ErrUnsupportedStructure ErrorCode = "G0302"
	ErrUnsupportedOperator  ErrorCode = "G0303"

	// C0xxx: validator compilation errors
	ErrCompileFailed  ErrorCode = "C0101"
	ErrCompileTimeout ErrorCode = "C0102"
	ErrModuleLoad     ErrorCode = "C0201"

	// X0xxx: validator execution errors
	ErrExecFailed   ErrorCode = "X0101"
	ErrExecMismatch ErrorCode = "X0102"

	// F0xxx: fixture/input format errors
	ErrFixtureDecode  ErrorCode = "F0101"
	ErrFixtureField   ErrorCode = "F0102"
	ErrDocumentDecode ErrorCode = "F0201"
)

// Error is a structured convgen error.
type Error struct {
	Code ErrorCode
	// Message describes what failed.
	Message string
	// Expr is the original expression text, when known, so a failure can be
	// located without re-running the pipeline.
	Expr string
	// Token is the offending node class or operator symbol, when known.
	Token string
	Err   error
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new structured error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s (in %q)", e.Code, e.Message, e.Expr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithExpr attaches the originating expression text.
func (e *Error) WithExpr(expr string) *Error {
	e.Expr = expr
	return e
}

// WithToken attaches the offending token or node class.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	ce, ok := err.(*Error)
	return ok && ce.Code == code
}
