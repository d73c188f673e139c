package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrConflict indicates the record is still referenced elsewhere.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates caller supplied data failed a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrBadReference indicates a referenced record does not exist.
	ErrBadReference = errors.New("bad reference")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, tampered and expired tokens alike.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrServerMisconfigured is returned when the token signing secret is absent.
	ErrServerMisconfigured = errors.New("server misconfigured: signing secret not set")
	// ErrRoleMissing indicates an identity that does not resolve to a role.
	ErrRoleMissing = errors.New("identity has no role")
)

// UserError carries a message that is safe to return to API clients while
// still matching its sentinel through errors.Is.
type UserError struct {
	kind error
	msg  string
}

func (e *UserError) Error() string { return e.msg }

func (e *UserError) Unwrap() error { return e.kind }

// Invalid returns a validation error with a client-facing message.
func Invalid(msg string) error { return &UserError{kind: ErrValidation, msg: msg} }

// NotFound returns a not-found error with a client-facing message.
func NotFound(msg string) error { return &UserError{kind: ErrNotFound, msg: msg} }

// Conflict returns a conflict error with a client-facing message.
func Conflict(msg string) error { return &UserError{kind: ErrConflict, msg: msg} }

// BadReference returns a bad-reference error with a client-facing message.
func BadReference(msg string) error { return &UserError{kind: ErrBadReference, msg: msg} }

// UserSafeMessage returns the client-facing message of err, or fallback when
// err does not carry one.
func UserSafeMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.msg
	}
	return fallback
}
