package service

import (
	"context"
	"time"

	"crm_pipeline_backend/internal/contacts/cache"
	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeRepo implements Repository with function hooks so each test overrides
// only the calls it cares about.
type fakeRepo struct {
	moveFn       func(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error)
	listStageFn  func(ctx context.Context, pipelineID, stageID uuid.UUID) ([]repository.StageContact, error)
	findEmailsFn func(ctx context.Context, emails []string) (map[string]repository.EmailMatch, error)
	upsertFn     func(ctx context.Context, params repository.CreateContactParams) (domain.Contact, bool, error)
	getFn        func(ctx context.Context, id uuid.UUID) (domain.Contact, error)

	recordedMoves [][]repository.PlacementMove
}

func (f *fakeRepo) MovePlacements(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error) {
	f.recordedMoves = append(f.recordedMoves, moves)
	if f.moveFn != nil {
		return f.moveFn(ctx, moves)
	}
	outcomes := make([]repository.MoveOutcome, 0, len(moves))
	for _, m := range moves {
		outcomes = append(outcomes, repository.MoveOutcome{
			ContactID:  m.ContactID,
			PipelineID: m.PipelineID,
			StageID:    m.StageID,
			Position:   m.Position,
			Action:     domain.ActionPipelineAdded,
		})
	}
	return outcomes, nil
}

func (f *fakeRepo) ListByStage(ctx context.Context, pipelineID, stageID uuid.UUID) ([]repository.StageContact, error) {
	if f.listStageFn != nil {
		return f.listStageFn(ctx, pipelineID, stageID)
	}
	return nil, nil
}

func (f *fakeRepo) FindByNormalizedEmails(ctx context.Context, emails []string) (map[string]repository.EmailMatch, error) {
	if f.findEmailsFn != nil {
		return f.findEmailsFn(ctx, emails)
	}
	return map[string]repository.EmailMatch{}, nil
}

func (f *fakeRepo) UpsertByEmail(ctx context.Context, params repository.CreateContactParams) (domain.Contact, bool, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, params)
	}
	return domain.Contact{ID: uuid.New()}, true, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return domain.Contact{ID: id}, nil
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateContactParams) (domain.Contact, error) {
	return domain.Contact{ID: uuid.New(), FirstName: params.FirstName, Email: params.Email}, nil
}

func (f *fakeRepo) UpdateFields(ctx context.Context, id uuid.UUID, params repository.UpdateContactParams, actorID *uuid.UUID) (domain.Contact, error) {
	return domain.Contact{ID: id}, nil
}

func (f *fakeRepo) AddTag(ctx context.Context, contactID uuid.UUID, tag string, actorID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeRepo) AddAssignee(ctx context.Context, contactID, userID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeRepo) ListActivities(ctx context.Context, contactID uuid.UUID, filter repository.ActivityFilter) ([]domain.ActivityEntry, error) {
	return nil, nil
}

func (f *fakeRepo) CreateResponse(ctx context.Context, params repository.CreateResponseParams) (repository.ContactResponse, error) {
	return repository.ContactResponse{
		ID:                 uuid.New(),
		ContactID:          params.ContactID,
		Activity:           params.Activity,
		Note:               params.Note,
		MeetingScheduledAt: params.MeetingScheduledAt,
		CreatedBy:          params.CreatedBy,
	}, nil
}

func (f *fakeRepo) UpdateResponse(ctx context.Context, contactID, responseID uuid.UUID, params repository.UpdateResponseParams, actorID uuid.UUID) (repository.ContactResponse, error) {
	return repository.ContactResponse{ID: responseID, ContactID: contactID}, nil
}

func (f *fakeRepo) ListResponses(ctx context.Context, contactID uuid.UUID) ([]repository.ContactResponse, error) {
	return nil, nil
}

// fakeBoard records cache traffic.
type fakeBoard struct {
	entries     map[cache.StageKey][]byte
	invalidated []cache.StageKey
	sets        int
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{entries: map[cache.StageKey][]byte{}}
}

func (b *fakeBoard) Get(ctx context.Context, key cache.StageKey) ([]byte, bool) {
	payload, ok := b.entries[key]
	return payload, ok
}

func (b *fakeBoard) Set(ctx context.Context, key cache.StageKey, payload []byte) {
	b.entries[key] = payload
	b.sets++
}

func (b *fakeBoard) Invalidate(ctx context.Context, keys ...cache.StageKey) {
	b.invalidated = append(b.invalidated, keys...)
	for _, key := range keys {
		delete(b.entries, key)
	}
}

// fakeBus records published events synchronously.
type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) Subscribe(eventName string, handler events.Handler) {}

func newTestService(repo *fakeRepo) (*Service, *fakeBoard, *fakeBus) {
	board := newFakeBoard()
	bus := &fakeBus{}
	return New(repo, board, bus, logger.New("test")), board, bus
}

func timePtr(v time.Time) *time.Time { return &v }
func intPtr(v int) *int              { return &v }
