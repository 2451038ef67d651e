package model

import "time"

// Outcome values recorded for an invocation.
const (
	OutcomeSent  = "sent"
	OutcomeError = "error"
)

// Invocation records one message processed by a node.
type Invocation struct {
	// ID is the unique identifier for this record.
	ID string `json:"id" db:"id"`

	// NodeID and NodeType identify the node that handled the message.
	NodeID   string `json:"node_id" db:"node_id"`
	NodeType string `json:"node_type" db:"node_type"`

	// MessageID is the envelope's _msgid.
	MessageID string `json:"message_id" db:"message_id"`

	// IssueKey is the message topic after processing, usually the key of
	// the issue involved.
	IssueKey string `json:"issue_key" db:"issue_key"`

	// Outcome is OutcomeSent or OutcomeError.
	Outcome string `json:"outcome" db:"outcome"`

	// StatusCode is the HTTP status of a rejected request, zero otherwise.
	StatusCode int `json:"status_code" db:"status_code"`

	// Error is the error text for failed invocations.
	Error string `json:"error" db:"error"`

	// Forwarded is the number of messages forwarded downstream.
	Forwarded int `json:"forwarded" db:"forwarded"`

	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
