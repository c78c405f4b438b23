// Package service holds the calendar business logic: event CRUD plus the
// MeetingScheduled publication that drives background reminders.
package service

import (
	"context"
	"errors"
	"time"

	"crm_pipeline_backend/internal/calendar/repository"
	"crm_pipeline_backend/internal/calendar/transport"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the calendar service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateEventParams) (repository.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Event, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, params repository.UpdateEventParams) (repository.Event, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]repository.Event, error)
}

// Service handles calendar operations.
type Service struct {
	repo Repository
	bus  events.Bus
}

// New creates a new calendar service.
func New(repo Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Create registers an event. A future start publishes MeetingScheduled so a
// reminder gets queued.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req transport.CreateEventRequest) (transport.EventResponse, error) {
	params := repository.CreateEventParams{
		OwnerID:  ownerID,
		Title:    req.Title,
		Location: req.Location,
		Notes:    req.Notes,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if req.ContactID != "" {
		contactID, err := uuid.Parse(req.ContactID)
		if err != nil {
			return transport.EventResponse{}, apperr.Validation("invalid contact id")
		}
		params.ContactID = &contactID
	}

	created, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return transport.EventResponse{}, apperr.NotFound("contact not found")
		}
		return transport.EventResponse{}, err
	}

	s.publishMeeting(ctx, created)

	return toEventResponse(created), nil
}

// Update edits an event owned by the caller. Rescheduling to a future start
// republishes MeetingScheduled.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, req transport.UpdateEventRequest) (transport.EventResponse, error) {
	updated, err := s.repo.Update(ctx, id, ownerID, repository.UpdateEventParams{
		Title:    req.Title,
		Location: req.Location,
		Notes:    req.Notes,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.EventResponse{}, apperr.NotFound("calendar event not found")
		}
		return transport.EventResponse{}, err
	}

	if req.StartsAt != nil {
		s.publishMeeting(ctx, updated)
	}

	return toEventResponse(updated), nil
}

// List returns the caller's events in the given window, soonest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) (transport.EventsResponse, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID, from, to)
	if err != nil {
		return transport.EventsResponse{}, err
	}

	resp := transport.EventsResponse{Items: make([]transport.EventResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toEventResponse(item))
	}
	return resp, nil
}

func (s *Service) publishMeeting(ctx context.Context, event repository.Event) {
	if s.bus == nil || event.StartsAt.Before(time.Now()) {
		return
	}

	s.bus.Publish(ctx, events.MeetingScheduled{
		BaseEvent: events.NewBaseEvent(),
		SourceID:  event.ID,
		ContactID: event.ContactID,
		OwnerID:   event.OwnerID,
		Title:     event.Title,
		StartsAt:  event.StartsAt,
	})
}

func toEventResponse(e repository.Event) transport.EventResponse {
	return transport.EventResponse{
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		ContactID: e.ContactID,
		Title:     e.Title,
		Location:  e.Location,
		Notes:     e.Notes,
		StartsAt:  e.StartsAt,
		EndsAt:    e.EndsAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
