// Package transport defines the request/response DTOs for the contacts module.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MoveRequest is a single drag of one contact card to a pipeline stage.
// The acting user is taken from the authenticated session.
type MoveRequest struct {
	PipelineID string `json:"pipelineId" binding:"required" validate:"required,uuid"`
	StageID    string `json:"stageId" binding:"required" validate:"required,uuid"`
	Order      *int   `json:"order" validate:"omitempty,gte=0"`
}

// BatchMoveEntry is one entry of a bulk drag. UserID is optional: entries
// without an actor update silently, with no ledger entry.
type BatchMoveEntry struct {
	ContactID  string `json:"contactId" binding:"required" validate:"required,uuid"`
	PipelineID string `json:"pipelineId" binding:"required" validate:"required,uuid"`
	StageID    string `json:"stageId" binding:"required" validate:"required,uuid"`
	Order      *int   `json:"order" validate:"omitempty,gte=0"`
	UserID     string `json:"userId" validate:"omitempty,uuid"`
}

type BatchMoveRequest struct {
	Items []BatchMoveEntry `json:"items" binding:"required" validate:"required,min=1,dive"`
}

// PlacementResponse confirms one committed placement move.
type PlacementResponse struct {
	ContactID  uuid.UUID  `json:"contactId"`
	PipelineID uuid.UUID  `json:"pipelineId"`
	StageID    uuid.UUID  `json:"stageId"`
	Order      *int       `json:"order,omitempty"`
	Action     string     `json:"action"`
	OldStageID *uuid.UUID `json:"oldStageId,omitempty"`
}

type BatchMoveResponse struct {
	Items []PlacementResponse `json:"items"`
}

// ContactSummary is a contact as it appears in a stage column.
type ContactSummary struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Probability int       `json:"probability"`
	Order       *int      `json:"order,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type StageContactsResponse struct {
	PipelineID uuid.UUID        `json:"pipelineId"`
	StageID    uuid.UUID        `json:"stageId"`
	Items      []ContactSummary `json:"items"`
}

// IncomingContact is a candidate record for duplicate-check or bulk upsert.
type IncomingContact struct {
	FirstName   string   `json:"firstName" validate:"max=120"`
	LastName    string   `json:"lastName" validate:"max=120"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Phone       string   `json:"phone" validate:"max=32"`
	Notes       string   `json:"notes" validate:"max=4000"`
	Probability int      `json:"probability" validate:"gte=0,lte=100"`
	AssignedTo  []string `json:"assignedTo" validate:"dive,uuid"`
}

type DuplicateCheckRequest struct {
	Contacts []IncomingContact `json:"contacts" binding:"required" validate:"required,min=1,dive"`
}

// DuplicateMatch pairs an incoming duplicate with the existing contact it
// collided with, when one exists.
type DuplicateMatch struct {
	Incoming          IncomingContact `json:"incoming"`
	ExistingContactID *uuid.UUID      `json:"existingContactId,omitempty"`
	Reason            string          `json:"reason"`
}

type DuplicateCheckResponse struct {
	Duplicates  []DuplicateMatch  `json:"duplicates"`
	NewContacts []IncomingContact `json:"newContacts"`
}

type BulkUpsertRequest struct {
	Contacts []IncomingContact `json:"contacts" binding:"required" validate:"required,min=1,dive"`
}

type BulkUpsertResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type UpdateContactRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,max=120"`
	LastName    *string `json:"lastName" validate:"omitempty,max=120"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Notes       *string `json:"notes" validate:"omitempty,max=4000"`
	Probability *int    `json:"probability" validate:"omitempty,gte=0,lte=100"`
}

type AddTagRequest struct {
	Tag string `json:"tag" binding:"required" validate:"required,min=1,max=60"`
}

type ContactResponseRequest struct {
	Activity             string     `json:"activity" binding:"required" validate:"required,oneof=call meeting payment note"`
	Note                 string     `json:"note" validate:"max=4000"`
	MeetingScheduledDate *time.Time `json:"meetingScheduledDate"`
}

type UpdateContactResponseRequest struct {
	Activity             *string    `json:"activity" validate:"omitempty,oneof=call meeting payment note"`
	Note                 *string    `json:"note" validate:"omitempty,max=4000"`
	MeetingScheduledDate *time.Time `json:"meetingScheduledDate"`
}

type ContactResponseResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ContactID            uuid.UUID  `json:"contactId"`
	Activity             string     `json:"activity"`
	Note                 string     `json:"note,omitempty"`
	MeetingScheduledDate *time.Time `json:"meetingScheduledDate,omitempty"`
	CreatedBy            uuid.UUID  `json:"createdBy"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type ContactResponsesResponse struct {
	Items []ContactResponseResponse `json:"items"`
}

type ActivityEntryResponse struct {
	ID        uuid.UUID       `json:"id"`
	Action    string          `json:"action"`
	ActorID   *uuid.UUID      `json:"actorId,omitempty"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ActivitiesResponse struct {
	Items []ActivityEntryResponse `json:"items"`
}

type ContactDetailResponse struct {
	ID          uuid.UUID           `json:"id"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Email       string              `json:"email,omitempty"`
	Phone       string              `json:"phone,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Probability int                 `json:"probability"`
	Tags        []TagResponse       `json:"tags,omitempty"`
	Assignees   []AssigneeResponse  `json:"assignees,omitempty"`
	Placements  []PlacementSnapshot `json:"placements,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type TagResponse struct {
	Tag       string    `json:"tag"`
	AddedBy   uuid.UUID `json:"addedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type AssigneeResponse struct {
	UserID     uuid.UUID `json:"userId"`
	AssignedAt time.Time `json:"assignedAt"`
}

type PlacementSnapshot struct {
	PipelineID uuid.UUID `json:"pipelineId"`
	StageID    uuid.UUID `json:"stageId"`
	Order      *int      `json:"order,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
