package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal server error")
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateGrant signals that the uniqueness constraint rejected a
	// re-submission. Callers treat it as success, not failure.
	ErrDuplicateGrant = errors.New("duplicate grant")

	// ErrStorageUnavailable is transient; callers retry with backoff using
	// the same event ID.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptIndex means a leaderboard or streak cache inconsistency was
	// detected. It triggers a rebuild from the ledger, not a crash.
	ErrCorruptIndex = errors.New("corrupt leaderboard index")

	// ErrStaleRuleVersion means an event was processed against a rule
	// version that is no longer active.
	ErrStaleRuleVersion = errors.New("stale rule version")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrStaleRuleVersion) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrCorruptIndex) {
		return http.StatusServiceUnavailable
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
