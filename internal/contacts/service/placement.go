package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"crm_pipeline_backend/internal/contacts/cache"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/transport"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Move places one contact in a pipeline stage, acting as the given user. It
// returns the committed outcome including the action kind and, for stage
// transitions, the previous stage.
func (s *Service) Move(ctx context.Context, contactID uuid.UUID, req transport.MoveRequest, actorID uuid.UUID) (transport.PlacementResponse, error) {
	pipelineID, stageID, err := parsePlacementIDs(req.PipelineID, req.StageID)
	if err != nil {
		return transport.PlacementResponse{}, err
	}

	outcomes, err := s.applyMoves(ctx, []repository.PlacementMove{{
		ContactID:  contactID,
		PipelineID: pipelineID,
		StageID:    stageID,
		Position:   req.Order,
		ActorID:    &actorID,
	}})
	if err != nil {
		return transport.PlacementResponse{}, err
	}

	return toPlacementResponse(outcomes[0]), nil
}

// MoveBatch applies a bulk drag all-or-nothing: either every entry commits,
// with its ledger entry, or none do. Entries are validated up front so a
// malformed identifier never reaches the datastore.
func (s *Service) MoveBatch(ctx context.Context, req transport.BatchMoveRequest) (transport.BatchMoveResponse, error) {
	moves := make([]repository.PlacementMove, 0, len(req.Items))
	for i, item := range req.Items {
		contactID, err := uuid.Parse(item.ContactID)
		if err != nil {
			return transport.BatchMoveResponse{}, apperr.Validation(fmt.Sprintf("item %d: invalid contact id", i))
		}
		pipelineID, err := uuid.Parse(item.PipelineID)
		if err != nil {
			return transport.BatchMoveResponse{}, apperr.Validation(fmt.Sprintf("item %d: invalid pipeline id", i))
		}
		stageID, err := uuid.Parse(item.StageID)
		if err != nil {
			return transport.BatchMoveResponse{}, apperr.Validation(fmt.Sprintf("item %d: invalid stage id", i))
		}

		move := repository.PlacementMove{
			ContactID:  contactID,
			PipelineID: pipelineID,
			StageID:    stageID,
			Position:   item.Order,
		}
		if item.UserID != "" {
			actorID, err := uuid.Parse(item.UserID)
			if err != nil {
				return transport.BatchMoveResponse{}, apperr.Validation(fmt.Sprintf("item %d: invalid user id", i))
			}
			move.ActorID = &actorID
		}
		moves = append(moves, move)
	}

	outcomes, err := s.applyMoves(ctx, moves)
	if err != nil {
		return transport.BatchMoveResponse{}, err
	}

	resp := transport.BatchMoveResponse{Items: make([]transport.PlacementResponse, 0, len(outcomes))}
	for _, outcome := range outcomes {
		resp.Items = append(resp.Items, toPlacementResponse(outcome))
	}
	return resp, nil
}

func (s *Service) applyMoves(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error) {
	outcomes, err := s.repo.MovePlacements(ctx, moves)
	if err != nil {
		return nil, mapMoveError(err)
	}

	keys := make([]cache.StageKey, 0, len(outcomes)*2)
	for _, outcome := range outcomes {
		keys = append(keys, cache.StageKey{PipelineID: outcome.PipelineID, StageID: outcome.StageID})
		if outcome.OldStageID != nil {
			keys = append(keys, cache.StageKey{PipelineID: outcome.PipelineID, StageID: *outcome.OldStageID})
		}
	}
	s.board.Invalidate(ctx, keys...)

	if s.bus != nil {
		for i, outcome := range outcomes {
			s.bus.Publish(ctx, events.ContactStageChanged{
				BaseEvent:  events.NewBaseEvent(),
				ContactID:  outcome.ContactID,
				PipelineID: outcome.PipelineID,
				OldStageID: outcome.OldStageID,
				NewStageID: outcome.StageID,
				MovedBy:    moves[i].ActorID,
			})
		}
	}

	return outcomes, nil
}

// ListByStage returns the contacts in a stage column, cache-first. The cache
// only ever serves what a fresh read produced moments earlier; correctness
// comes from the datastore.
func (s *Service) ListByStage(ctx context.Context, pipelineID, stageID uuid.UUID) (transport.StageContactsResponse, error) {
	key := cache.StageKey{PipelineID: pipelineID, StageID: stageID}
	if payload, ok := s.board.Get(ctx, key); ok {
		var cached transport.StageContactsResponse
		err := json.Unmarshal(payload, &cached)
		if err == nil {
			return cached, nil
		}
		s.log.Warn("discarding corrupt stage board cache entry", "pipeline_id", pipelineID, "stage_id", stageID, "error", err)
		s.board.Invalidate(ctx, key)
	}

	items, err := s.repo.ListByStage(ctx, pipelineID, stageID)
	if err != nil {
		if errors.Is(err, repository.ErrStageNotInPipeline) {
			return transport.StageContactsResponse{}, apperr.NotFound("stage not found in pipeline")
		}
		return transport.StageContactsResponse{}, err
	}

	resp := transport.StageContactsResponse{
		PipelineID: pipelineID,
		StageID:    stageID,
		Items:      make([]transport.ContactSummary, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, transport.ContactSummary{
			ID:          item.Contact.ID,
			FirstName:   item.Contact.FirstName,
			LastName:    item.Contact.LastName,
			Email:       item.Contact.Email,
			Phone:       item.Contact.Phone,
			Probability: item.Contact.Probability,
			Order:       item.Placement.Position,
			UpdatedAt:   item.Placement.UpdatedAt,
		})
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.board.Set(ctx, key, payload)
	}

	return resp, nil
}

func parsePlacementIDs(pipeline, stage string) (uuid.UUID, uuid.UUID, error) {
	pipelineID, err := uuid.Parse(pipeline)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation("invalid pipeline id")
	}
	stageID, err := uuid.Parse(stage)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation("invalid stage id")
	}
	return pipelineID, stageID, nil
}

func mapMoveError(err error) error {
	var moveErr *repository.MoveError
	prefix := ""
	if errors.As(err, &moveErr) {
		prefix = fmt.Sprintf("item %d: ", moveErr.Index)
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(prefix + "contact not found")
	case errors.Is(err, repository.ErrPipelineNotFound):
		return apperr.NotFound(prefix + "pipeline not found")
	case errors.Is(err, repository.ErrStageNotInPipeline):
		return apperr.Validation(prefix + "stage does not belong to pipeline")
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to move placement", err)
	}
}

func toPlacementResponse(outcome repository.MoveOutcome) transport.PlacementResponse {
	return transport.PlacementResponse{
		ContactID:  outcome.ContactID,
		PipelineID: outcome.PipelineID,
		StageID:    outcome.StageID,
		Order:      outcome.Position,
		Action:     string(outcome.Action),
		OldStageID: outcome.OldStageID,
	}
}
