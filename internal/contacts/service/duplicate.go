package service

import (
	"context"
	"sync"

	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/transport"
	"crm_pipeline_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Lookups are chunked so a large import does not turn into one giant
// ANY($1) scan; chunks run concurrently.
const duplicateLookupChunk = 200

const (
	reasonEmailExists      = "email already exists"
	reasonIncomingAssigned = "incoming contact already has assignees"
	reasonExistingAssigned = "existing contact has assignees"
)

// CheckDuplicates classifies incoming records against existing contacts
// without writing anything. A record counts as a duplicate when its
// normalized email matches an existing contact, when it arrives already
// carrying assignees, or when the matched contact has assignees.
func (s *Service) CheckDuplicates(ctx context.Context, req transport.DuplicateCheckRequest) (transport.DuplicateCheckResponse, error) {
	emails := make([]string, 0, len(req.Contacts))
	seen := make(map[string]bool, len(req.Contacts))
	for _, incoming := range req.Contacts {
		normalized := domain.NormalizeEmail(incoming.Email)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		emails = append(emails, normalized)
	}

	matches, err := s.lookupEmails(ctx, emails)
	if err != nil {
		return transport.DuplicateCheckResponse{}, err
	}

	resp := transport.DuplicateCheckResponse{
		Duplicates:  make([]transport.DuplicateMatch, 0),
		NewContacts: make([]transport.IncomingContact, 0),
	}
	for _, incoming := range req.Contacts {
		match, found := matches[domain.NormalizeEmail(incoming.Email)]
		switch {
		case found && match.HasAssignees:
			id := match.ContactID
			resp.Duplicates = append(resp.Duplicates, transport.DuplicateMatch{
				Incoming: incoming, ExistingContactID: &id, Reason: reasonExistingAssigned,
			})
		case found:
			id := match.ContactID
			resp.Duplicates = append(resp.Duplicates, transport.DuplicateMatch{
				Incoming: incoming, ExistingContactID: &id, Reason: reasonEmailExists,
			})
		case len(incoming.AssignedTo) > 0:
			resp.Duplicates = append(resp.Duplicates, transport.DuplicateMatch{
				Incoming: incoming, Reason: reasonIncomingAssigned,
			})
		default:
			resp.NewContacts = append(resp.NewContacts, incoming)
		}
	}

	return resp, nil
}

func (s *Service) lookupEmails(ctx context.Context, emails []string) (map[string]repository.EmailMatch, error) {
	matches := make(map[string]repository.EmailMatch, len(emails))
	if len(emails) == 0 {
		return matches, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(emails); start += duplicateLookupChunk {
		end := min(start+duplicateLookupChunk, len(emails))
		chunk := emails[start:end]
		g.Go(func() error {
			found, err := s.repo.FindByNormalizedEmails(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for email, match := range found {
				matches[email] = match
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return matches, nil
}

// BulkUpsert imports a batch of contacts: records whose normalized email is
// unknown are created, known ones are updated in place. Phone numbers are
// normalized to E.164 on the way in, and incoming assignees are attached to
// the resulting contact.
func (s *Service) BulkUpsert(ctx context.Context, req transport.BulkUpsertRequest, actorID uuid.UUID) (transport.BulkUpsertResponse, error) {
	var resp transport.BulkUpsertResponse
	for _, incoming := range req.Contacts {
		contact, created, err := s.repo.UpsertByEmail(ctx, repository.CreateContactParams{
			FirstName:   incoming.FirstName,
			LastName:    incoming.LastName,
			Email:       incoming.Email,
			Phone:       phone.NormalizeE164(incoming.Phone),
			Notes:       incoming.Notes,
			Probability: incoming.Probability,
		})
		if err != nil {
			return transport.BulkUpsertResponse{}, err
		}
		if created {
			resp.Created++
		} else {
			resp.Updated++
		}

		for _, raw := range incoming.AssignedTo {
			userID, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			if err := s.assign(ctx, contact.ID, userID, actorID); err != nil {
				return transport.BulkUpsertResponse{}, err
			}
		}
	}

	return resp, nil
}
