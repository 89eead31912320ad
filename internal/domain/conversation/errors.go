package conversation

import "errors"

// Error codes surfaced through apperrors.AppError.
const (
	CodeInvalidInput    = "invalid_input"
	CodeInvalidToken    = "invalid_token"
	CodeSessionNotFound = "session_not_found"
	CodeForbidden       = "forbidden"
	CodeInternal        = "conversation_error"
)

// Intake form failures, phrased the way they are shown to the user.
var (
	ErrMissingInformation   = errors.New("missing information")
	ErrInvalidStudentNumber = errors.New("invalid student number")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrInvalidProgram       = errors.New("invalid program")
	ErrInvalidAudience      = errors.New("invalid audience")
)
