package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Outcome is the result of a completed HTTP exchange. The client never
// interprets the status code; callers compare it with the one code their
// operation treats as success.
type Outcome struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// Expect returns nil when the outcome carries the given status code and an
// *UnexpectedStatusError otherwise.
func (o *Outcome) Expect(code int) error {
	if o.StatusCode == code {
		return nil
	}
	return &UnexpectedStatusError{
		Method:     o.Method,
		Path:       o.Path,
		StatusCode: o.StatusCode,
		Body:       o.Body,
	}
}

// Decode unmarshals the response body into v.
func (o *Outcome) Decode(v any) error {
	if len(o.Body) == 0 {
		return fmt.Errorf("decoding response from %s %s: empty body", o.Method, o.Path)
	}
	if err := json.Unmarshal(o.Body, v); err != nil {
		return fmt.Errorf("decoding response from %s %s: %w", o.Method, o.Path, err)
	}
	return nil
}

// Value returns the body as a generic JSON value, or nil when there is no
// body. Bodies that are not JSON are returned as a string.
func (o *Outcome) Value() any {
	if len(o.Body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(o.Body, &v); err != nil {
		return string(o.Body)
	}
	return v
}

// Key returns the top-level "key" of the body, as carried by issue
// responses.
func (o *Outcome) Key() string {
	var ref struct {
		Key string `json:"key"`
	}
	if len(o.Body) == 0 || json.Unmarshal(o.Body, &ref) != nil {
		return ""
	}
	return ref.Key
}
