package classifier

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the label classifier.
type APIError struct {
	operation  string
	statusCode int
	message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.message)
}

func newAPIError(operation string, statusCode int, message string) *APIError {
	return &APIError{operation: operation, statusCode: statusCode, message: message}
}

// StatusCode returns the HTTP status code from the response.
func (e *APIError) StatusCode() int { return e.statusCode }

// Message returns the response body or status text.
func (e *APIError) Message() string { return e.message }

// HasStatusCode reports whether err is an API error with the given status code.
func HasStatusCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.statusCode == code
}

// ErrEmptyLabel is returned when the classifier answers without a label.
var ErrEmptyLabel = errors.New("classifier response has no label")
