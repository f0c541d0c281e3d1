package providers

import "fmt"

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// NewAuthError wraps a credential rejection from the upstream provider.
func NewAuthError(message string) error {
	return &authError{message: message}
}

// IsAuthError checks if an error is an authentication error from the
// upstream provider.
func IsAuthError(err error) bool {
	_, ok := err.(*authError)
	return ok
}

// StatusError is a non-success upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("advisory API error (status %d): %s", e.Code, e.Body)
}

// IsStatusError checks if an error is a non-2xx upstream response.
func IsStatusError(err error) bool {
	_, ok := err.(*StatusError)
	return ok
}
