package testutil

import (
	"sync"

	"github.com/nhle/jira-flow-nodes/internal/node"
)

// SentMessage is a message forwarded through a RecordingHost.
type SentMessage struct {
	NodeID string
	Msg    *node.Message
}

// RaisedError is an error signal raised through a RecordingHost.
type RaisedError struct {
	NodeID string
	Err    error
	Msg    *node.Message
}

// RecordingHost is a node.Host that records everything nodes report.
type RecordingHost struct {
	mu       sync.Mutex
	sent     []SentMessage
	errors   []RaisedError
	statuses []node.Status
}

func (h *RecordingHost) Send(nodeID string, msg *node.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, SentMessage{NodeID: nodeID, Msg: msg})
}

func (h *RecordingHost) Error(nodeID string, err error, msg *node.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, RaisedError{NodeID: nodeID, Err: err, Msg: msg})
}

func (h *RecordingHost) NodeStatus(_ string, st node.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, st)
}

// Sent returns the forwarded messages.
func (h *RecordingHost) Sent() []SentMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SentMessage(nil), h.sent...)
}

// Errors returns the raised error signals.
func (h *RecordingHost) Errors() []RaisedError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RaisedError(nil), h.errors...)
}

// States returns the sequence of reported states.
func (h *RecordingHost) States() []node.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	states := make([]node.State, 0, len(h.statuses))
	for _, st := range h.statuses {
		states = append(states, st.State)
	}
	return states
}
