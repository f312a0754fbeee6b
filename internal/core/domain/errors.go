package domain

import "errors"

// Error kinds. Every error returned by the core wraps exactly one of these,
// so callers can branch with errors.Is without depending on messages.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("insufficient permissions")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrInternal       = errors.New("internal error")
)

// Error carries a client-safe message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Client-visible authentication messages. Kept uniform on purpose: callers
// must not learn which verification stage failed.
const (
	MsgInvalidCredentials     = "invalid credentials"
	MsgInvalidToken           = "invalid or expired token"
	MsgMissingAuthHeader      = "missing authorization header"
	MsgInvalidAuthFormat      = "invalid authorization format"
	MsgInvalidRoleInToken     = "invalid role in token"
	MsgInvalidUserIDInToken   = "invalid user id in token"
	MsgCurrentPasswordInvalid = "current password incorrect"
)

var (
	ErrAccountExists   = &Error{Kind: ErrConflict, Message: "email already registered"}
	ErrAccountNotFound = &Error{Kind: ErrNotFound, Message: "account not found"}
	ErrTooManyAttempts = &Error{Kind: ErrRateLimited, Message: "too many failed login attempts"}
)

func AuthenticationError(msg string) error {
	return &Error{Kind: ErrAuthentication, Message: msg}
}

func AuthorizationError(required Role) error {
	return &Error{Kind: ErrAuthorization, Message: "insufficient permissions, required: " + required.String()}
}

func ValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// InternalError hides cause from clients; the cause stays reachable for logs
// through Cause.
func InternalError(cause error) error {
	return &internalError{cause: cause}
}

type internalError struct {
	cause error
}

func (e *internalError) Error() string {
	if e.cause == nil {
		return ErrInternal.Error()
	}
	return ErrInternal.Error() + ": " + e.cause.Error()
}

func (e *internalError) Is(target error) bool {
	return target == ErrInternal
}

func (e *internalError) Unwrap() error {
	return e.cause
}

// Message returns the client-safe text for err. Unknown errors yield the
// generic internal message.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}
