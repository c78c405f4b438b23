// Package transport defines the request/response DTOs for the calendar module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Title     string     `json:"title" binding:"required" validate:"required,min=1,max=200"`
	Location  string     `json:"location" validate:"max=300"`
	Notes     string     `json:"notes" validate:"max=4000"`
	ContactID string     `json:"contactId" validate:"omitempty,uuid"`
	StartsAt  time.Time  `json:"startsAt" binding:"required" validate:"required"`
	EndsAt    *time.Time `json:"endsAt"`
}

type UpdateEventRequest struct {
	Title    *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Location *string    `json:"location" validate:"omitempty,max=300"`
	Notes    *string    `json:"notes" validate:"omitempty,max=4000"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
}

type EventResponse struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
	Title     string     `json:"title"`
	Location  string     `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	StartsAt  time.Time  `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type EventsResponse struct {
	Items []EventResponse `json:"items"`
}
