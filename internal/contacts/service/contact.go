package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/transport"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/apperr"
	"crm_pipeline_backend/platform/phone"

	"github.com/google/uuid"
)

// Create registers a single contact and publishes ContactCreated.
func (s *Service) Create(ctx context.Context, req transport.IncomingContact, actorID uuid.UUID) (transport.ContactDetailResponse, error) {
	contact, err := s.repo.Create(ctx, repository.CreateContactParams{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       phone.NormalizeE164(req.Phone),
		Notes:       req.Notes,
		Probability: req.Probability,
	})
	if err != nil {
		return transport.ContactDetailResponse{}, err
	}

	for _, raw := range req.AssignedTo {
		userID, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if err := s.assign(ctx, contact.ID, userID, actorID); err != nil {
			return transport.ContactDetailResponse{}, err
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ContactCreated{
			BaseEvent: events.NewBaseEvent(),
			ContactID: contact.ID,
			Email:     contact.Email,
			CreatedBy: actorID,
		})
	}

	return s.Get(ctx, contact.ID)
}

// Get loads the full contact aggregate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.ContactDetailResponse, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ContactDetailResponse{}, apperr.NotFound("contact not found")
		}
		return transport.ContactDetailResponse{}, err
	}

	return toContactDetail(contact), nil
}

// Update applies partial field edits. The before/after values land in the
// contact's ledger inside the same transaction as the edit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateContactRequest, actorID uuid.UUID) (transport.ContactDetailResponse, error) {
	params := repository.UpdateContactParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Notes:       req.Notes,
		Probability: req.Probability,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	contact, err := s.repo.UpdateFields(ctx, id, params, &actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ContactDetailResponse{}, apperr.NotFound("contact not found")
		}
		return transport.ContactDetailResponse{}, err
	}

	return s.Get(ctx, contact.ID)
}

// AddTag attaches a tag to the contact. Re-adding an existing tag is a no-op.
func (s *Service) AddTag(ctx context.Context, contactID uuid.UUID, req transport.AddTagRequest, actorID uuid.UUID) error {
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		return apperr.Validation("tag is required")
	}

	if _, err := s.repo.AddTag(ctx, contactID, tag, actorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("contact not found")
		}
		return err
	}
	return nil
}

// AddAssignee assigns a user to the contact and publishes ContactAssigned.
func (s *Service) AddAssignee(ctx context.Context, contactID, userID, actorID uuid.UUID) error {
	return s.assign(ctx, contactID, userID, actorID)
}

func (s *Service) assign(ctx context.Context, contactID, userID, actorID uuid.UUID) error {
	added, err := s.repo.AddAssignee(ctx, contactID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("contact not found")
		}
		return err
	}
	if added && s.bus != nil {
		s.bus.Publish(ctx, events.ContactAssigned{
			BaseEvent:  events.NewBaseEvent(),
			ContactID:  contactID,
			AssigneeID: userID,
			AssignedBy: actorID,
		})
	}
	return nil
}

// ListActivities returns the contact's ledger, newest first, optionally
// filtered by action and time range.
func (s *Service) ListActivities(ctx context.Context, contactID uuid.UUID, action string, from, to *time.Time) (transport.ActivitiesResponse, error) {
	filter := repository.ActivityFilter{From: from, To: to}
	if action != "" {
		if !domain.ValidActions[domain.Action(action)] {
			return transport.ActivitiesResponse{}, apperr.Validation("unknown activity action")
		}
		filter.Action = domain.Action(action)
	}

	if _, err := s.repo.GetByID(ctx, contactID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ActivitiesResponse{}, apperr.NotFound("contact not found")
		}
		return transport.ActivitiesResponse{}, err
	}

	entries, err := s.repo.ListActivities(ctx, contactID, filter)
	if err != nil {
		return transport.ActivitiesResponse{}, err
	}

	resp := transport.ActivitiesResponse{Items: make([]transport.ActivityEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		resp.Items = append(resp.Items, transport.ActivityEntryResponse{
			ID:        entry.ID,
			Action:    string(entry.Action),
			ActorID:   entry.ActorID,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp, nil
}

func toContactDetail(c domain.Contact) transport.ContactDetailResponse {
	resp := transport.ContactDetailResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		Notes:       c.Notes,
		Probability: c.Probability,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, t := range c.Tags {
		resp.Tags = append(resp.Tags, transport.TagResponse{Tag: t.Tag, AddedBy: t.AddedBy, CreatedAt: t.CreatedAt})
	}
	for _, a := range c.Assignees {
		resp.Assignees = append(resp.Assignees, transport.AssigneeResponse{UserID: a.UserID, AssignedAt: a.AssignedAt})
	}
	domain.SortForStage(c.Placements)
	for _, p := range c.Placements {
		resp.Placements = append(resp.Placements, transport.PlacementSnapshot{
			PipelineID: p.PipelineID,
			StageID:    p.StageID,
			Order:      p.Position,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return resp
}
