package service

import "errors"

// Error kinds. Every *Error wraps exactly one of them so callers can pick an
// HTTP status with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

const (
	CodeInvalidUsername     = "INVALID_USERNAME"
	CodeInvalidEmail        = "INVALID_EMAIL"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUsernameTaken       = "USERNAME_TAKEN"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeTokenReuseDetected  = "TOKEN_REUSE_DETECTED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotFound            = "NOT_FOUND"
	CodeColumnLimit         = "COLUMN_LIMIT"
	CodeStatusTaken         = "STATUS_TAKEN"
	CodeColumnNotEmpty      = "COLUMN_NOT_EMPTY"
	CodeInternal            = "INTERNAL_ERROR"
	CodeRateLimited         = "RATE_LIMITED"
)

const (
	MsgUsernameTaken      = "Username is already taken"
	MsgEmailTaken         = "Email is already registered"
	MsgInvalidCredentials = "Invalid email or password"
	MsgRegistrationFailed = "Registration failed"
	MsgAuthRequired       = "Authentication required"
	MsgUserNotFound       = "User not found"
)

// Error is a failure with a stable code and a message safe to show a client.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationError(code, msg string) *Error {
	return &Error{Kind: ErrValidation, Code: code, Message: msg}
}

func conflictError(code, msg string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: msg}
}

func unauthorizedError(code, msg string) *Error {
	return &Error{Kind: ErrUnauthorized, Code: code, Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: ErrNotFound, Code: CodeNotFound, Message: msg}
}

func internalError(code, msg string, err error) *Error {
	return &Error{Kind: ErrInternal, Code: code, Message: msg, Err: err}
}
