// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"crm_pipeline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Contact Domain Events
// =============================================================================

// ContactCreated is published when a new contact is created.
type ContactCreated struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	Email     string    `json:"email,omitempty"`
	CreatedBy uuid.UUID `json:"createdBy"`
}

func (e ContactCreated) EventName() string { return "contacts.created" }

// ContactAssigned is published when a contact gains an assignee.
type ContactAssigned struct {
	BaseEvent
	ContactID  uuid.UUID `json:"contactId"`
	AssigneeID uuid.UUID `json:"assigneeId"`
	AssignedBy uuid.UUID `json:"assignedBy"`
}

func (e ContactAssigned) EventName() string { return "contacts.assigned" }

// ContactStageChanged is published after a committed placement move.
type ContactStageChanged struct {
	BaseEvent
	ContactID  uuid.UUID  `json:"contactId"`
	PipelineID uuid.UUID  `json:"pipelineId"`
	OldStageID *uuid.UUID `json:"oldStageId,omitempty"`
	NewStageID uuid.UUID  `json:"newStageId"`
	MovedBy    *uuid.UUID `json:"movedBy,omitempty"`
}

func (e ContactStageChanged) EventName() string { return "contacts.stage_changed" }

// =============================================================================
// Calendar Domain Events
// =============================================================================

// MeetingScheduled is published when a meeting gains a future start time:
// either a calendar event, or a contact response carrying a scheduled
// meeting date. SourceID is the calendar event or response that owns the
// meeting.
type MeetingScheduled struct {
	BaseEvent
	SourceID  uuid.UUID  `json:"sourceId"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	Title     string     `json:"title"`
	StartsAt  time.Time  `json:"startsAt"`
}

func (e MeetingScheduled) EventName() string { return "calendar.meeting_scheduled" }

// MeetingReminderDue is published by the scheduler worker when a reminder
// task fires.
type MeetingReminderDue struct {
	BaseEvent
	SourceID  uuid.UUID  `json:"sourceId"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	Title     string     `json:"title"`
	StartsAt  time.Time  `json:"startsAt"`
}

func (e MeetingReminderDue) EventName() string { return "calendar.meeting_reminder_due" }
