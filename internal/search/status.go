package search

import "fmt"

// Status is the state of the most recent search as shown to the user.
type Status int

const (
	Complete Status = iota
	InProgress
	Failed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case InProgress:
		return "in progress"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StatusUpdate is emitted whenever the status changes.
type StatusUpdate struct {
	Status  Status
	Message string
	// Query is the search the update belongs to, if any.
	Query string
}

// DefaultHint is the message shown before the first search.
const DefaultHint = "Type a device name and press enter to search"
