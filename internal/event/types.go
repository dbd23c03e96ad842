package event

import "context"

// Priority determines handler execution order. Lower values execute first.
type Priority int

const (
	// PriorityCritical is for consistency checks that must run first.
	PriorityCritical Priority = 0

	// PriorityHigh is for handlers that must see the state before the change.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for handlers that observe the state after the change.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Event is one published notification.
type Event struct {
	// Topic is the concrete topic the event was published on.
	Topic Topic

	// Payload is the event-specific data; handlers type-assert it.
	Payload any
}

// HandlerFunc processes an event.
type HandlerFunc func(ctx context.Context, ev Event) error
