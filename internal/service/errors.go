package service

import (
	"errors"

	"dockeeper/internal/http/client"
)

var (
	// ErrValidation is a client-side rejection raised before any request.
	ErrValidation = errors.New("validation error")
	// ErrUnauthenticated means an operation needed a token and none was stored.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrCancelled means the user declined a confirmation.
	ErrCancelled = errors.New("cancelled by user")

	ErrRegistrationFailed = errors.New("registration failed")
	ErrLoginFailed        = errors.New("login failed")
	ErrFetchFailed        = errors.New("fetch documents failed")
	ErrUploadFailed       = errors.New("upload failed")
	ErrDeleteFailed       = errors.New("delete failed")
)

// APIError is a failed remote operation: a non-2xx response or a transport
// failure. Message is what the user was shown.
type APIError struct {
	Op      string
	Status  int
	Message string
	// Kind is the per-operation sentinel, e.g. ErrUploadFailed.
	Kind error
	Err  error
}

func (e *APIError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *APIError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// newAPIError picks the user-facing message: the server's own text when
// serverMsg is set and the server sent one, otherwise def.
func newAPIError(op string, kind error, def string, err error, serverMsg bool) *APIError {
	ae := &APIError{Op: op, Message: def, Kind: kind, Err: err}
	var se *client.StatusError
	if errors.As(err, &se) {
		ae.Status = se.StatusCode
		if serverMsg && se.Message != "" {
			ae.Message = se.Message
		}
	}
	return ae
}
