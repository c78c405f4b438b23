// Package service holds the pipeline catalog business logic: pipeline
// creation, batched stage creation, and the stage-membership predicate
// consumed by the placement engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crm_pipeline_backend/internal/pipelines/repository"
	"crm_pipeline_backend/internal/pipelines/transport"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the catalog service.
type Repository interface {
	CreatePipeline(ctx context.Context, params repository.CreatePipelineParams) (repository.Pipeline, error)
	GetPipeline(ctx context.Context, id uuid.UUID) (repository.Pipeline, error)
	ListPipelines(ctx context.Context) ([]repository.Pipeline, error)
	CreateStages(ctx context.Context, pipelineID uuid.UUID, specs []repository.CreateStageParams) ([]repository.Stage, error)
	ListStages(ctx context.Context, pipelineID uuid.UUID) ([]repository.Stage, error)
	StageBelongsToPipeline(ctx context.Context, stageID, pipelineID uuid.UUID) (bool, error)
}

// Service handles pipeline catalog operations.
type Service struct {
	repo Repository
}

// New creates a new catalog service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePipeline creates a pipeline with a globally unique name.
func (s *Service) CreatePipeline(ctx context.Context, ownerID uuid.UUID, req transport.CreatePipelineRequest) (transport.PipelineResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.PipelineResponse{}, apperr.Validation("pipeline name is required")
	}

	created, err := s.repo.CreatePipeline(ctx, repository.CreatePipelineParams{
		Name:    name,
		OwnerID: ownerID,
		Notes:   strings.TrimSpace(req.Notes),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return transport.PipelineResponse{}, apperr.Conflict("pipeline name already exists").WithDetails(name)
		}
		return transport.PipelineResponse{}, err
	}

	return toPipelineResponse(created, nil), nil
}

// CreateStages validates and creates a batch of stages for a pipeline.
// The first violation found rejects the whole batch.
func (s *Service) CreateStages(ctx context.Context, pipelineID uuid.UUID, req transport.CreateStagesRequest) ([]transport.StageResponse, error) {
	if len(req.Stages) == 0 {
		return nil, apperr.Validation("at least one stage is required")
	}

	seenNames := make(map[string]bool, len(req.Stages))
	seenPositions := make(map[int]bool, len(req.Stages))
	specs := make([]repository.CreateStageParams, 0, len(req.Stages))

	for i, spec := range req.Stages {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, apperr.Validation(fmt.Sprintf("stage %d: name is required", i))
		}
		if seenNames[strings.ToLower(name)] {
			return nil, apperr.Validation(fmt.Sprintf("stage %d: duplicate name %q", i, name))
		}
		if spec.Position <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("stage %d: position must be a positive integer", i))
		}
		if seenPositions[spec.Position] {
			return nil, apperr.Validation(fmt.Sprintf("stage %d: duplicate position %d", i, spec.Position))
		}
		if spec.Probability < 0 || spec.Probability > 100 {
			return nil, apperr.Validation(fmt.Sprintf("stage %d: probability must be between 0 and 100", i))
		}

		seenNames[strings.ToLower(name)] = true
		seenPositions[spec.Position] = true
		specs = append(specs, repository.CreateStageParams{
			Name:        name,
			Position:    spec.Position,
			Probability: spec.Probability,
		})
	}

	created, err := s.repo.CreateStages(ctx, pipelineID, specs)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("pipeline not found").WithDetails(pipelineID)
		case errors.Is(err, repository.ErrDuplicateStage):
			return nil, apperr.Validation("stage name or position already used in pipeline")
		}
		return nil, err
	}

	items := make([]transport.StageResponse, len(created))
	for i, stage := range created {
		items[i] = toStageResponse(stage)
	}
	return items, nil
}

// ListPipelines returns all pipelines with their ordered stages.
func (s *Service) ListPipelines(ctx context.Context) (transport.PipelinesResponse, error) {
	pipelines, err := s.repo.ListPipelines(ctx)
	if err != nil {
		return transport.PipelinesResponse{}, err
	}

	items := make([]transport.PipelineResponse, 0, len(pipelines))
	for _, p := range pipelines {
		stages, err := s.repo.ListStages(ctx, p.ID)
		if err != nil {
			return transport.PipelinesResponse{}, err
		}
		items = append(items, toPipelineResponse(p, stages))
	}

	return transport.PipelinesResponse{Items: items}, nil
}

// StageBelongsToPipeline is the core catalog predicate. The placement engine
// runs the equivalent check against its own transaction's read view rather
// than calling here; this method serves callers validating a stage outside a
// placement transaction.
func (s *Service) StageBelongsToPipeline(ctx context.Context, stageID, pipelineID uuid.UUID) (bool, error) {
	return s.repo.StageBelongsToPipeline(ctx, stageID, pipelineID)
}

func toPipelineResponse(p repository.Pipeline, stages []repository.Stage) transport.PipelineResponse {
	resp := transport.PipelineResponse{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, stage := range stages {
		resp.Stages = append(resp.Stages, toStageResponse(stage))
	}
	return resp
}

func toStageResponse(stage repository.Stage) transport.StageResponse {
	return transport.StageResponse{
		ID:          stage.ID,
		PipelineID:  stage.PipelineID,
		Name:        stage.Name,
		Position:    stage.Position,
		Probability: stage.Probability,
		CreatedAt:   stage.CreatedAt,
	}
}
