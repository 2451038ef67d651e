package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TransportError indicates that an HTTP exchange did not complete:
// connection, DNS, TLS, timeout or cancellation.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("executing request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError indicates that JIRA answered, but not with the
// status code the operation treats as success.
type UnexpectedStatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       json.RawMessage
}

func (e *UnexpectedStatusError) Error() string {
	var jiraErr ErrorResponse
	if json.Unmarshal(e.Body, &jiraErr) == nil &&
		(len(jiraErr.ErrorMessages) > 0 || len(jiraErr.Errors) > 0) {
		return fmt.Sprintf(
			"jira API error (%d) on %s %s: %s %v",
			e.StatusCode, e.Method, e.Path,
			strings.Join(jiraErr.ErrorMessages, "; "),
			jiraErr.Errors,
		)
	}
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, string(e.Body),
	)
}

// InvalidRequestError indicates that a required input was missing or
// malformed. It is raised before any network call.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// ErrorResponse is the standard JIRA error body.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsUnexpectedStatus reports whether err (or any error in its chain) is an
// UnexpectedStatusError.
func IsUnexpectedStatus(err error) bool {
	var target *UnexpectedStatusError
	return errors.As(err, &target)
}

// IsInvalidRequest reports whether err (or any error in its chain) is an
// InvalidRequestError.
func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by an UnexpectedStatusError
// in err's chain.
func StatusCode(err error) (int, bool) {
	var target *UnexpectedStatusError
	if errors.As(err, &target) {
		return target.StatusCode, true
	}
	return 0, false
}
