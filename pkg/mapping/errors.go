package mapping

import (
	"fmt"
)

// RequestError describes a request the mapping service did not accept.
// Body holds the response body verbatim so server misbehavior is visible.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s failed: %v", e.Method, e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: HTTP %d: %v (body: %s)", e.Method, e.URL, e.StatusCode, e.Err, e.Body)
	}
	return fmt.Sprintf("%s %s: HTTP %d (body: %s)", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// FieldError is returned when a response lacks the field a later request
// depends on
type FieldError struct {
	URL   string
	Field string
	Body  string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("response from %s: field '%s' unusable: %v (body: %s)", e.URL, e.Field, e.Err, e.Body)
	}
	return fmt.Sprintf("response from %s: missing field '%s' (body: %s)", e.URL, e.Field, e.Body)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
