package service

import (
	"context"
	"encoding/json"
	"testing"

	"crm_pipeline_backend/internal/contacts/cache"
	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/transport"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestMove_FirstPlacementReportsPipelineAdded(t *testing.T) {
	repo := &fakeRepo{}
	svc, board, bus := newTestService(repo)

	contactID := uuid.New()
	pipelineID := uuid.New()
	stageID := uuid.New()
	actorID := uuid.New()

	got, err := svc.Move(context.Background(), contactID, transport.MoveRequest{
		PipelineID: pipelineID.String(),
		StageID:    stageID.String(),
	}, actorID)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	if got.Action != string(domain.ActionPipelineAdded) {
		t.Fatalf("expected action %s, got %s", domain.ActionPipelineAdded, got.Action)
	}
	if got.OldStageID != nil {
		t.Fatalf("expected no old stage for a first placement")
	}

	if len(repo.recordedMoves) != 1 || len(repo.recordedMoves[0]) != 1 {
		t.Fatalf("expected exactly one recorded move, got %v", repo.recordedMoves)
	}
	move := repo.recordedMoves[0][0]
	if move.ActorID == nil || *move.ActorID != actorID {
		t.Fatalf("expected actor %s on the move, got %v", actorID, move.ActorID)
	}

	if len(board.invalidated) != 1 || board.invalidated[0] != (cache.StageKey{PipelineID: pipelineID, StageID: stageID}) {
		t.Fatalf("expected new stage key invalidated, got %v", board.invalidated)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(bus.published))
	}
	changed, ok := bus.published[0].(events.ContactStageChanged)
	if !ok {
		t.Fatalf("expected ContactStageChanged, got %T", bus.published[0])
	}
	if changed.ContactID != contactID || changed.NewStageID != stageID {
		t.Fatalf("unexpected event payload: %+v", changed)
	}
}

func TestMove_StageChangeInvalidatesBothStages(t *testing.T) {
	oldStage := uuid.New()
	repo := &fakeRepo{
		moveFn: func(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error) {
			m := moves[0]
			return []repository.MoveOutcome{{
				ContactID:  m.ContactID,
				PipelineID: m.PipelineID,
				StageID:    m.StageID,
				Action:     domain.ActionPipelineStageUpdated,
				OldStageID: &oldStage,
			}}, nil
		},
	}
	svc, board, bus := newTestService(repo)

	pipelineID := uuid.New()
	newStage := uuid.New()

	got, err := svc.Move(context.Background(), uuid.New(), transport.MoveRequest{
		PipelineID: pipelineID.String(),
		StageID:    newStage.String(),
	}, uuid.New())
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	if got.Action != string(domain.ActionPipelineStageUpdated) {
		t.Fatalf("expected stage-updated action, got %s", got.Action)
	}
	if got.OldStageID == nil || *got.OldStageID != oldStage {
		t.Fatalf("expected old stage %s, got %v", oldStage, got.OldStageID)
	}

	if len(board.invalidated) != 2 {
		t.Fatalf("expected old and new stage keys invalidated, got %v", board.invalidated)
	}
	changed := bus.published[0].(events.ContactStageChanged)
	if changed.OldStageID == nil || *changed.OldStageID != oldStage {
		t.Fatalf("expected old stage on the event, got %v", changed.OldStageID)
	}
}

func TestMove_MalformedPipelineIDNeverReachesRepository(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(repo)

	_, err := svc.Move(context.Background(), uuid.New(), transport.MoveRequest{
		PipelineID: "not-a-uuid",
		StageID:    uuid.New().String(),
	}, uuid.New())

	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.recordedMoves) != 0 {
		t.Fatalf("expected no repository call, got %v", repo.recordedMoves)
	}
}

func TestMoveBatch_PreValidationRejectsWholeBatch(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, bus := newTestService(repo)

	_, err := svc.MoveBatch(context.Background(), transport.BatchMoveRequest{
		Items: []transport.BatchMoveEntry{
			{ContactID: uuid.New().String(), PipelineID: uuid.New().String(), StageID: uuid.New().String()},
			{ContactID: uuid.New().String(), PipelineID: uuid.New().String(), StageID: "broken"},
		},
	})

	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.recordedMoves) != 0 {
		t.Fatalf("expected no repository call for an invalid batch")
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events for an invalid batch")
	}
}

func TestMoveBatch_StageMismatchMapsToValidation(t *testing.T) {
	repo := &fakeRepo{
		moveFn: func(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error) {
			return nil, &repository.MoveError{Index: 1, ContactID: moves[1].ContactID, Err: repository.ErrStageNotInPipeline}
		},
	}
	svc, board, bus := newTestService(repo)

	_, err := svc.MoveBatch(context.Background(), transport.BatchMoveRequest{
		Items: []transport.BatchMoveEntry{
			{ContactID: uuid.New().String(), PipelineID: uuid.New().String(), StageID: uuid.New().String()},
			{ContactID: uuid.New().String(), PipelineID: uuid.New().String(), StageID: uuid.New().String()},
		},
	})

	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(board.invalidated) != 0 {
		t.Fatalf("expected no cache invalidation for a failed batch")
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events for a failed batch")
	}
}

func TestMoveBatch_EntryWithoutUserMovesSilently(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(repo)

	actorID := uuid.New()
	_, err := svc.MoveBatch(context.Background(), transport.BatchMoveRequest{
		Items: []transport.BatchMoveEntry{
			{ContactID: uuid.New().String(), PipelineID: uuid.New().String(), StageID: uuid.New().String(), UserID: actorID.String()},
			{ContactID: uuid.New().String(), PipelineID: uuid.New().String(), StageID: uuid.New().String()},
		},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	moves := repo.recordedMoves[0]
	if moves[0].ActorID == nil || *moves[0].ActorID != actorID {
		t.Fatalf("expected actor on the first entry")
	}
	if moves[1].ActorID != nil {
		t.Fatalf("expected no actor on the silent entry, got %v", moves[1].ActorID)
	}
}

func TestMove_UnknownContactMapsToNotFound(t *testing.T) {
	repo := &fakeRepo{
		moveFn: func(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error) {
			return nil, &repository.MoveError{Index: 0, ContactID: moves[0].ContactID, Err: repository.ErrNotFound}
		},
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.Move(context.Background(), uuid.New(), transport.MoveRequest{
		PipelineID: uuid.New().String(),
		StageID:    uuid.New().String(),
	}, uuid.New())

	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByStage_CacheHitSkipsRepository(t *testing.T) {
	pipelineID := uuid.New()
	stageID := uuid.New()
	cached := transport.StageContactsResponse{
		PipelineID: pipelineID,
		StageID:    stageID,
		Items:      []transport.ContactSummary{{ID: uuid.New(), FirstName: "Ada"}},
	}
	payload, _ := json.Marshal(cached)

	repoCalled := false
	repo := &fakeRepo{
		listStageFn: func(ctx context.Context, p, s uuid.UUID) ([]repository.StageContact, error) {
			repoCalled = true
			return nil, nil
		},
	}
	svc, board, _ := newTestService(repo)
	board.entries[cache.StageKey{PipelineID: pipelineID, StageID: stageID}] = payload

	got, err := svc.ListByStage(context.Background(), pipelineID, stageID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repoCalled {
		t.Fatalf("expected cache hit to skip the repository")
	}
	if len(got.Items) != 1 || got.Items[0].FirstName != "Ada" {
		t.Fatalf("unexpected cached payload: %+v", got)
	}
}

func TestListByStage_CacheMissReadsAndFills(t *testing.T) {
	pipelineID := uuid.New()
	stageID := uuid.New()
	pos := 1
	repo := &fakeRepo{
		listStageFn: func(ctx context.Context, p, s uuid.UUID) ([]repository.StageContact, error) {
			return []repository.StageContact{{
				Contact:   domain.Contact{ID: uuid.New(), FirstName: "Grace"},
				Placement: domain.Placement{PipelineID: p, StageID: s, Position: &pos},
			}}, nil
		},
	}
	svc, board, _ := newTestService(repo)

	got, err := svc.ListByStage(context.Background(), pipelineID, stageID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].FirstName != "Grace" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if board.sets != 1 {
		t.Fatalf("expected the listing to be cached, sets=%d", board.sets)
	}
}

func TestListByStage_UnknownStageMapsToNotFound(t *testing.T) {
	repo := &fakeRepo{
		listStageFn: func(ctx context.Context, p, s uuid.UUID) ([]repository.StageContact, error) {
			return nil, repository.ErrStageNotInPipeline
		},
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.ListByStage(context.Background(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
