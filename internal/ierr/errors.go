package ierr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	ErrInvalidCredentials = errors.New("invalid admin password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrTimeout = errors.New("request timeout")
	ErrNetwork = errors.New("network error")
	ErrBackend = errors.New("backend rejected request")
)

// APIError is a non-2xx answer from the Sorvide backend.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrNotFound
	}
	if e.StatusCode == 401 {
		return ErrUnauthorized
	}
	return ErrBackend
}

// PublicError pairs a sentinel kind with text that is safe to show to the
// operator as is.
type PublicError struct {
	Kind error
	Text string
}

func (e *PublicError) Error() string {
	return e.Kind.Error() + ": " + e.Text
}

func (e *PublicError) Unwrap() error {
	return e.Kind
}

func Public(kind error, text string) error {
	return &PublicError{Kind: kind, Text: text}
}

// IsUnreachable reports whether err means the backend could not serve the
// request at all (transport failure, timeout or a missing endpoint).
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrNotFound)
}

// Message returns the operator-facing text of err.
func Message(err error) string {
	var pubErr *PublicError
	if errors.As(err, &pubErr) {
		return pubErr.Text
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrTimeout):
		return "Request timeout. Please check your connection."
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	}
	return err.Error()
}
