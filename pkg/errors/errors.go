package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAutomatonBuild   = errors.New("automaton build failed")
	ErrDictionaryRead   = errors.New("term dictionary read failed")
	ErrPostingsRead     = errors.New("posting list read failed")
	ErrCorruptSegment   = errors.New("corrupt segment")
	ErrSegmentNotFound  = errors.New("segment not found")
	ErrFieldNotFound    = errors.New("field not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSegmentsDegraded = errors.New("one or more segments failed")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Stage names the query evaluation step an error came from: "automaton",
// "dictionary", "postings", or "" when err carries no stage sentinel.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrAutomatonBuild):
		return "automaton"
	case errors.Is(err, ErrDictionaryRead):
		return "dictionary"
	case errors.Is(err, ErrPostingsRead):
		return "postings"
	default:
		return ""
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrSegmentNotFound), errors.Is(err, ErrFieldNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrAutomatonBuild):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrSegmentsDegraded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}

}
