package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a request received by a FakeJira server.
type RecordedRequest struct {
	Method   string
	Path     string
	Body     []byte
	Username string
	Password string
}

// SearchBody decodes the recorded body as a search request.
func (r RecordedRequest) SearchBody(t *testing.T) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(r.Body, &body); err != nil {
		t.Fatalf("decoding search body %q: %v", r.Body, err)
	}
	return body
}

// FakeJira is an httptest server that records every request and answers
// with a caller-supplied handler. The REST root is URL + "/rest/api/2/".
type FakeJira struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeJira starts a fake server backed by handler. It is closed when the
// test completes.
func NewFakeJira(t *testing.T, handler http.HandlerFunc) *FakeJira {
	t.Helper()

	f := &FakeJira{}
	f.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			body, _ := io.ReadAll(req.Body)
			user, pass, _ := req.BasicAuth()

			f.mu.Lock()
			f.requests = append(f.requests, RecordedRequest{
				Method:   req.Method,
				Path:     req.URL.Path,
				Body:     body,
				Username: user,
				Password: pass,
			})
			f.mu.Unlock()

			req.Body = io.NopCloser(bytes.NewReader(body))
			handler(w, req)
		},
	))
	t.Cleanup(f.Close)

	return f
}

// BaseURL returns the REST root served by the fake.
func (f *FakeJira) BaseURL() string {
	return f.URL + "/rest/api/2/"
}

// Requests returns a copy of the requests received so far.
func (f *FakeJira) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Respond returns a handler that always answers with status and body.
func Respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		if body != "" {
			fmt.Fprint(w, body)
		}
	}
}

// PagedSearch returns a handler serving a search over total issues keyed
// TEST-1 .. TEST-total, honoring startAt and maxResults in the request body.
func PagedSearch(total int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			StartAt    int `json:"startAt"`
			MaxResults int `json:"maxResults"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		issues := []map[string]any{}
		for i := body.StartAt; i < total && i < body.StartAt+body.MaxResults; i++ {
			issues = append(issues, map[string]any{
				"key":    fmt.Sprintf("TEST-%d", i+1),
				"fields": map[string]any{"summary": fmt.Sprintf("issue %d", i+1)},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"startAt":    body.StartAt,
			"maxResults": body.MaxResults,
			"total":      total,
			"issues":     issues,
		})
	}
}
