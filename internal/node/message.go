package node

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Message is the envelope passed between nodes by the host runtime. Topic
// carries the issue key and Payload the request or response body.
type Message struct {
	ID         string   `json:"_msgid,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Payload    any      `json:"payload,omitempty"`
	JQL        string   `json:"jql,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	Result     any      `json:"result,omitempty"`
	StatusCode int      `json:"statusCode,omitempty"`
	Errors     string   `json:"errors,omitempty"`

	// Props holds any other top-level properties of the envelope so they
	// pass through a node untouched.
	Props map[string]any `json:"-"`
}

// knownProps are the envelope keys decoded into Message fields.
var knownProps = []string{
	"_msgid", "topic", "payload", "jql", "fields",
	"result", "statusCode", "errors",
}

// NewMessage returns a message with a fresh ID.
func NewMessage(topic string, payload any) *Message {
	return &Message{
		ID:      uuid.New().String(),
		Topic:   topic,
		Payload: payload,
	}
}

// Clone returns a shallow copy of m with its own Fields and Props.
func (m *Message) Clone() *Message {
	c := *m
	if m.Fields != nil {
		c.Fields = append([]string(nil), m.Fields...)
	}
	if m.Props != nil {
		c.Props = make(map[string]any, len(m.Props))
		for k, v := range m.Props {
			c.Props[k] = v
		}
	}
	return &c
}

func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	data, err := json.Marshal(alias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Props) == 0 {
		return data, nil
	}

	merged := make(map[string]any, len(m.Props)+len(knownProps))
	for k, v := range m.Props {
		merged[k] = v
	}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

func (m *Message) UnmarshalJSON(b []byte) error {
	type alias Message
	aux := (*alias)(m)
	if err := json.Unmarshal(b, aux); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownProps {
		delete(all, k)
	}
	if len(all) > 0 {
		m.Props = all
	} else {
		m.Props = nil
	}
	return nil
}

// payloadBody converts the payload into the structured map sent to JIRA.
// A nil payload yields a nil map. JSON text is decoded.
func payloadBody(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return p, nil
	case string:
		if strings.TrimSpace(p) == "" {
			return nil, nil
		}
		return decodeBody([]byte(p))
	case []byte:
		if len(p) == 0 {
			return nil, nil
		}
		return decodeBody(p)
	case json.RawMessage:
		if len(p) == 0 {
			return nil, nil
		}
		return decodeBody(p)
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
		return decodeBody(data)
	}
}

func decodeBody(data []byte) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return body, nil
}
