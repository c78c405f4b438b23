// Package domain holds the contact aggregate types shared by the repository
// and service layers: placements, the activity ledger vocabulary, and the
// typed payloads recorded with each ledger entry.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of state change an activity entry documents.
type Action string

const (
	ActionPipelineAdded          Action = "PIPELINE_ADDED"
	ActionPipelineStageUpdated   Action = "PIPELINE_STAGE_UPDATED"
	ActionContactResponseAdded   Action = "CONTACT_RESPONSE_ADDED"
	ActionContactResponseUpdated Action = "CONTACT_RESPONSE_UPDATED"
	ActionTagAdded               Action = "TAG_ADDED"
	ActionContactUpdated         Action = "CONTACT_UPDATED"
)

// ValidActions lists every recognized ledger action, used to validate
// activity-list filters.
var ValidActions = map[Action]bool{
	ActionPipelineAdded:          true,
	ActionPipelineStageUpdated:   true,
	ActionContactResponseAdded:   true,
	ActionContactResponseUpdated: true,
	ActionTagAdded:               true,
	ActionContactUpdated:         true,
}

// ActivityDetails is the tagged union of per-action payloads. Each concrete
// payload carries exactly the before/after state for its action; call sites
// never build untyped maps.
type ActivityDetails interface {
	Action() Action
}

// PipelineAddedDetails documents a contact's first placement in a pipeline.
type PipelineAddedDetails struct {
	PipelineID uuid.UUID `json:"pipelineId"`
	StageID    uuid.UUID `json:"stageId"`
	Position   *int      `json:"position,omitempty"`
}

func (PipelineAddedDetails) Action() Action { return ActionPipelineAdded }

// StageUpdatedDetails documents a move of an existing placement.
type StageUpdatedDetails struct {
	PipelineID  uuid.UUID `json:"pipelineId"`
	OldStageID  uuid.UUID `json:"oldStageId"`
	NewStageID  uuid.UUID `json:"newStageId"`
	OldPosition *int      `json:"oldPosition,omitempty"`
	NewPosition *int      `json:"newPosition,omitempty"`
}

func (StageUpdatedDetails) Action() Action { return ActionPipelineStageUpdated }

// ResponseAddedDetails documents a newly recorded contact response.
type ResponseAddedDetails struct {
	ResponseID uuid.UUID  `json:"responseId"`
	Activity   string     `json:"activity"`
	MeetingAt  *time.Time `json:"meetingAt,omitempty"`
}

func (ResponseAddedDetails) Action() Action { return ActionContactResponseAdded }

// ResponseUpdatedDetails documents an edit to an existing contact response.
type ResponseUpdatedDetails struct {
	ResponseID  uuid.UUID  `json:"responseId"`
	OldActivity string     `json:"oldActivity"`
	NewActivity string     `json:"newActivity"`
	MeetingAt   *time.Time `json:"meetingAt,omitempty"`
}

func (ResponseUpdatedDetails) Action() Action { return ActionContactResponseUpdated }

// TagAddedDetails documents a tag attached to the contact.
type TagAddedDetails struct {
	Tag string `json:"tag"`
}

func (TagAddedDetails) Action() Action { return ActionTagAdded }

// ContactUpdatedDetails documents edited contact fields, keyed by field name
// with old/new values.
type ContactUpdatedDetails struct {
	Changed map[string]FieldChange `json:"changed"`
}

// FieldChange is one before/after pair inside ContactUpdatedDetails.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (ContactUpdatedDetails) Action() Action { return ActionContactUpdated }

// MarshalDetails serializes a typed payload for storage.
func MarshalDetails(details ActivityDetails) (json.RawMessage, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ActivityEntry is one immutable ledger record. Entries are written inside
// the same transaction as the state change they document and are never
// updated or deleted.
type ActivityEntry struct {
	ID        uuid.UUID
	ContactID uuid.UUID
	Action    Action
	ActorID   *uuid.UUID
	Details   json.RawMessage
	CreatedAt time.Time
}
