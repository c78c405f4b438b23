package service

import (
	"context"
	"testing"
	"time"

	"crm_pipeline_backend/internal/contacts/domain"

	"github.com/google/uuid"
)

func TestGet_PlacementSnapshotsOrdered(t *testing.T) {
	contactID := uuid.New()
	now := time.Now()
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	repo := &fakeRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
			return domain.Contact{
				ID: id,
				Placements: []domain.Placement{
					{PipelineID: third, Position: nil, UpdatedAt: now},
					{PipelineID: second, Position: intPtr(2), UpdatedAt: now},
					{PipelineID: first, Position: intPtr(1), UpdatedAt: now},
				},
			}, nil
		},
	}
	svc, _, _ := newTestService(repo)

	resp, err := svc.Get(context.Background(), contactID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Placements) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(resp.Placements))
	}
	if resp.Placements[0].PipelineID != first || resp.Placements[1].PipelineID != second {
		t.Fatalf("expected positioned placements in ascending order, got %+v", resp.Placements)
	}
	if resp.Placements[2].Order != nil {
		t.Fatalf("expected unpositioned placement last, got %+v", resp.Placements[2])
	}
}
