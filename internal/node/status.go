package node

// State is the observable state of a node.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a node's state plus a short operator-facing text.
type Status struct {
	State State
	Text  string
}

// StatusListener is notified whenever a node changes status. Status is
// informational only: it never decides whether an operation proceeds.
type StatusListener interface {
	NodeStatus(nodeID string, st Status)
}

// Host is the runtime a node reports to. For every input a node calls
// exactly one of Send or Error.
type Host interface {
	StatusListener

	// Send forwards msg downstream on the normal path.
	Send(nodeID string, msg *Message)

	// Error raises an error signal for msg. The message is not forwarded.
	Error(nodeID string, err error, msg *Message)
}
