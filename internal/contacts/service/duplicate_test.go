package service

import (
	"context"
	"testing"

	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/transport"

	"github.com/google/uuid"
)

func TestCheckDuplicates_EmailMatch(t *testing.T) {
	existingID := uuid.New()
	repo := &fakeRepo{
		findEmailsFn: func(ctx context.Context, emails []string) (map[string]repository.EmailMatch, error) {
			return map[string]repository.EmailMatch{
				"jane@example.com": {ContactID: existingID, Email: "Jane@example.com"},
			}, nil
		},
	}
	svc, _, _ := newTestService(repo)

	got, err := svc.CheckDuplicates(context.Background(), transport.DuplicateCheckRequest{
		Contacts: []transport.IncomingContact{{FirstName: "Jane", Email: "Jane@Example.com"}},
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(got.Duplicates) != 1 || len(got.NewContacts) != 0 {
		t.Fatalf("expected 1 duplicate and 0 new, got %d/%d", len(got.Duplicates), len(got.NewContacts))
	}
	dup := got.Duplicates[0]
	if dup.ExistingContactID == nil || *dup.ExistingContactID != existingID {
		t.Fatalf("expected existing contact %s, got %v", existingID, dup.ExistingContactID)
	}
	if dup.Reason != reasonEmailExists {
		t.Fatalf("expected reason %q, got %q", reasonEmailExists, dup.Reason)
	}
}

func TestCheckDuplicates_ExistingContactWithAssignees(t *testing.T) {
	repo := &fakeRepo{
		findEmailsFn: func(ctx context.Context, emails []string) (map[string]repository.EmailMatch, error) {
			return map[string]repository.EmailMatch{
				"sam@example.com": {ContactID: uuid.New(), HasAssignees: true},
			}, nil
		},
	}
	svc, _, _ := newTestService(repo)

	got, err := svc.CheckDuplicates(context.Background(), transport.DuplicateCheckRequest{
		Contacts: []transport.IncomingContact{{Email: "sam@example.com"}},
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(got.Duplicates) != 1 || got.Duplicates[0].Reason != reasonExistingAssigned {
		t.Fatalf("expected assignee-based duplicate, got %+v", got.Duplicates)
	}
}

func TestCheckDuplicates_IncomingAssigneesWithoutMatch(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(repo)

	got, err := svc.CheckDuplicates(context.Background(), transport.DuplicateCheckRequest{
		Contacts: []transport.IncomingContact{
			{Email: "new@example.com", AssignedTo: []string{uuid.New().String()}},
			{Email: "clean@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(got.Duplicates) != 1 || got.Duplicates[0].Reason != reasonIncomingAssigned {
		t.Fatalf("expected incoming-assignee duplicate, got %+v", got.Duplicates)
	}
	if got.Duplicates[0].ExistingContactID != nil {
		t.Fatalf("expected no existing contact for an unmatched incoming record")
	}
	if len(got.NewContacts) != 1 || got.NewContacts[0].Email != "clean@example.com" {
		t.Fatalf("expected the clean record classified as new, got %+v", got.NewContacts)
	}
}

func TestCheckDuplicates_IsReadOnly(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, bus := newTestService(repo)

	_, err := svc.CheckDuplicates(context.Background(), transport.DuplicateCheckRequest{
		Contacts: []transport.IncomingContact{{Email: "a@example.com"}},
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(repo.recordedMoves) != 0 || len(bus.published) != 0 {
		t.Fatalf("expected duplicate check to produce no writes or events")
	}
}

func TestBulkUpsert_CountsCreatedAndUpdated(t *testing.T) {
	calls := 0
	repo := &fakeRepo{
		upsertFn: func(ctx context.Context, params repository.CreateContactParams) (domain.Contact, bool, error) {
			calls++
			return domain.Contact{ID: uuid.New()}, calls == 1, nil
		},
	}
	svc, _, _ := newTestService(repo)

	got, err := svc.BulkUpsert(context.Background(), transport.BulkUpsertRequest{
		Contacts: []transport.IncomingContact{
			{Email: "first@example.com"},
			{Email: "second@example.com"},
		},
	}, uuid.New())
	if err != nil {
		t.Fatalf("bulk upsert failed: %v", err)
	}

	if got.Created != 1 || got.Updated != 1 {
		t.Fatalf("expected 1 created / 1 updated, got %d/%d", got.Created, got.Updated)
	}
}
