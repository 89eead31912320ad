package errors

import "errors"

// AppError tags a failure with a stable code that the HTTP layer maps to a status.
// Message is safe to show to a chat user; Err carries the detail for logs.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap tags err with code. A nil err yields a bare AppError.
func Wrap(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost AppError in err's chain.
func CodeOf(err error) (string, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// IsCode reports whether err carries any of codes.
func IsCode(err error, codes ...string) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	for _, want := range codes {
		if code == want {
			return true
		}
	}
	return false
}
