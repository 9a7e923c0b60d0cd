package session

// Code classifies a command failure. Every failure a command can
// produce carries one of these; the connection layer turns it into a
// scoped error event for the offending connection only.
type Code string

const (
	CodeNotFound         Code = "not_found"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeIdentityRequired Code = "identity_required"
	CodeInvalidPayload   Code = "invalid_payload"
	CodePersistence      Code = "persistence_error"
	CodeInternal         Code = "internal"
)

// Error is a typed command failure with a stable, client-facing
// message. Commands never let anything else escape the worker.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errNotFound(msg string) *Error         { return &Error{Code: CodeNotFound, Message: msg} }
func errUnauthorized(msg string) *Error     { return &Error{Code: CodeUnauthorized, Message: msg} }
func errForbidden(msg string) *Error        { return &Error{Code: CodeForbidden, Message: msg} }
func errIdentityRequired(msg string) *Error { return &Error{Code: CodeIdentityRequired, Message: msg} }
func errInvalidPayload(msg string) *Error   { return &Error{Code: CodeInvalidPayload, Message: msg} }
func errPersistence(msg string) *Error      { return &Error{Code: CodePersistence, Message: msg} }
