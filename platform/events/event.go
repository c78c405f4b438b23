// Package events provides event bus infrastructure.
// This is part of the platform layer and contains no business logic.
package events

import "time"

// Event is implemented by every domain event that crosses module boundaries.
type Event interface {
	// EventName uniquely identifies the event type and is the key handlers
	// subscribe under.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent carries the fields shared by all events; embed it in concrete
// event structs.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt reports when the event happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}
