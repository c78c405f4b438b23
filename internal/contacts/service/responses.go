package service

import (
	"context"
	"errors"
	"time"

	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/transport"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// AddResponse records a structured interaction on the contact. A response
// carrying a future meeting date publishes MeetingScheduled so reminders get
// queued.
func (s *Service) AddResponse(ctx context.Context, contactID uuid.UUID, req transport.ContactResponseRequest, actorID uuid.UUID) (transport.ContactResponseResponse, error) {
	created, err := s.repo.CreateResponse(ctx, repository.CreateResponseParams{
		ContactID:          contactID,
		Activity:           req.Activity,
		Note:               req.Note,
		MeetingScheduledAt: req.MeetingScheduledDate,
		CreatedBy:          actorID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ContactResponseResponse{}, apperr.NotFound("contact not found")
		}
		return transport.ContactResponseResponse{}, err
	}

	s.publishMeeting(ctx, created)

	return toResponseResponse(created), nil
}

// UpdateResponse edits an existing response. Moving the meeting date
// republishes MeetingScheduled with the new time.
func (s *Service) UpdateResponse(ctx context.Context, contactID, responseID uuid.UUID, req transport.UpdateContactResponseRequest, actorID uuid.UUID) (transport.ContactResponseResponse, error) {
	updated, err := s.repo.UpdateResponse(ctx, contactID, responseID, repository.UpdateResponseParams{
		Activity:           req.Activity,
		Note:               req.Note,
		MeetingScheduledAt: req.MeetingScheduledDate,
	}, actorID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return transport.ContactResponseResponse{}, apperr.NotFound("contact not found")
		case errors.Is(err, repository.ErrResponseNotFound):
			return transport.ContactResponseResponse{}, apperr.NotFound("contact response not found")
		}
		return transport.ContactResponseResponse{}, err
	}

	if req.MeetingScheduledDate != nil {
		s.publishMeeting(ctx, updated)
	}

	return toResponseResponse(updated), nil
}

// ListResponses returns the contact's responses, newest first.
func (s *Service) ListResponses(ctx context.Context, contactID uuid.UUID) (transport.ContactResponsesResponse, error) {
	if _, err := s.repo.GetByID(ctx, contactID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ContactResponsesResponse{}, apperr.NotFound("contact not found")
		}
		return transport.ContactResponsesResponse{}, err
	}

	items, err := s.repo.ListResponses(ctx, contactID)
	if err != nil {
		return transport.ContactResponsesResponse{}, err
	}

	resp := transport.ContactResponsesResponse{Items: make([]transport.ContactResponseResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toResponseResponse(item))
	}
	return resp, nil
}

func (s *Service) publishMeeting(ctx context.Context, response repository.ContactResponse) {
	if s.bus == nil || response.MeetingScheduledAt == nil {
		return
	}
	if response.MeetingScheduledAt.Before(time.Now()) {
		return
	}

	contactID := response.ContactID
	s.bus.Publish(ctx, events.MeetingScheduled{
		BaseEvent: events.NewBaseEvent(),
		SourceID:  response.ID,
		ContactID: &contactID,
		OwnerID:   response.CreatedBy,
		Title:     "Meeting with contact",
		StartsAt:  *response.MeetingScheduledAt,
	})
}

func toResponseResponse(r repository.ContactResponse) transport.ContactResponseResponse {
	return transport.ContactResponseResponse{
		ID:                   r.ID,
		ContactID:            r.ContactID,
		Activity:             r.Activity,
		Note:                 r.Note,
		MeetingScheduledDate: r.MeetingScheduledAt,
		CreatedBy:            r.CreatedBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}
