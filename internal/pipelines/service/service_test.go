package service

import (
	"context"
	"strings"
	"testing"

	"crm_pipeline_backend/internal/pipelines/repository"
	"crm_pipeline_backend/internal/pipelines/transport"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	createPipelineFn func(ctx context.Context, params repository.CreatePipelineParams) (repository.Pipeline, error)
	createStagesFn   func(ctx context.Context, pipelineID uuid.UUID, specs []repository.CreateStageParams) ([]repository.Stage, error)

	stageCalls int
}

func (f *fakeRepo) CreatePipeline(ctx context.Context, params repository.CreatePipelineParams) (repository.Pipeline, error) {
	if f.createPipelineFn != nil {
		return f.createPipelineFn(ctx, params)
	}
	return repository.Pipeline{ID: uuid.New(), Name: params.Name, OwnerID: params.OwnerID}, nil
}

func (f *fakeRepo) GetPipeline(ctx context.Context, id uuid.UUID) (repository.Pipeline, error) {
	return repository.Pipeline{ID: id}, nil
}

func (f *fakeRepo) ListPipelines(ctx context.Context) ([]repository.Pipeline, error) {
	return nil, nil
}

func (f *fakeRepo) CreateStages(ctx context.Context, pipelineID uuid.UUID, specs []repository.CreateStageParams) ([]repository.Stage, error) {
	f.stageCalls++
	if f.createStagesFn != nil {
		return f.createStagesFn(ctx, pipelineID, specs)
	}
	stages := make([]repository.Stage, 0, len(specs))
	for _, spec := range specs {
		stages = append(stages, repository.Stage{
			ID:          uuid.New(),
			PipelineID:  pipelineID,
			Name:        spec.Name,
			Position:    spec.Position,
			Probability: spec.Probability,
		})
	}
	return stages, nil
}

func (f *fakeRepo) ListStages(ctx context.Context, pipelineID uuid.UUID) ([]repository.Stage, error) {
	return nil, nil
}

func (f *fakeRepo) StageBelongsToPipeline(ctx context.Context, stageID, pipelineID uuid.UUID) (bool, error) {
	return false, nil
}

func TestCreatePipeline_TrimsNameAndRejectsEmpty(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	created, err := svc.CreatePipeline(context.Background(), uuid.New(), transport.CreatePipelineRequest{Name: "  Sales  "})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Name != "Sales" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	_, err = svc.CreatePipeline(context.Background(), uuid.New(), transport.CreatePipelineRequest{Name: "   "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestCreatePipeline_DuplicateNameConflicts(t *testing.T) {
	repo := &fakeRepo{
		createPipelineFn: func(ctx context.Context, params repository.CreatePipelineParams) (repository.Pipeline, error) {
			return repository.Pipeline{}, repository.ErrDuplicateName
		},
	}
	svc := New(repo)

	_, err := svc.CreatePipeline(context.Background(), uuid.New(), transport.CreatePipelineRequest{Name: "Sales"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateStages_FirstViolationRejectsBatch(t *testing.T) {
	cases := []struct {
		name   string
		stages []transport.StageSpec
		want   string
	}{
		{
			name:   "empty name",
			stages: []transport.StageSpec{{Name: " ", Position: 1}},
			want:   "name is required",
		},
		{
			name: "duplicate name case-insensitive",
			stages: []transport.StageSpec{
				{Name: "Intake", Position: 1},
				{Name: "intake", Position: 2},
			},
			want: "duplicate name",
		},
		{
			name:   "non-positive position",
			stages: []transport.StageSpec{{Name: "Intake", Position: 0}},
			want:   "position must be a positive integer",
		},
		{
			name: "duplicate position",
			stages: []transport.StageSpec{
				{Name: "Intake", Position: 1},
				{Name: "Qualified", Position: 1},
			},
			want: "duplicate position",
		},
		{
			name:   "probability out of range",
			stages: []transport.StageSpec{{Name: "Intake", Position: 1, Probability: 101}},
			want:   "probability must be between 0 and 100",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := New(repo)

			_, err := svc.CreateStages(context.Background(), uuid.New(), transport.CreateStagesRequest{Stages: tc.stages})
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected message containing %q, got %q", tc.want, err.Error())
			}
			if repo.stageCalls != 0 {
				t.Fatalf("expected no repository call for an invalid batch")
			}
		})
	}
}

func TestCreateStages_ValidBatchPassesThrough(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	pipelineID := uuid.New()
	created, err := svc.CreateStages(context.Background(), pipelineID, transport.CreateStagesRequest{
		Stages: []transport.StageSpec{
			{Name: "Intake", Position: 1, Probability: 10},
			{Name: "Qualified", Position: 2, Probability: 40},
		},
	})
	if err != nil {
		t.Fatalf("create stages failed: %v", err)
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(created))
	}
	if created[0].Name != "Intake" || created[1].Position != 2 {
		t.Fatalf("unexpected stages: %+v", created)
	}
}

func TestCreateStages_UnknownPipelineMapsToNotFound(t *testing.T) {
	repo := &fakeRepo{
		createStagesFn: func(ctx context.Context, pipelineID uuid.UUID, specs []repository.CreateStageParams) ([]repository.Stage, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := New(repo)

	_, err := svc.CreateStages(context.Background(), uuid.New(), transport.CreateStagesRequest{
		Stages: []transport.StageSpec{{Name: "Intake", Position: 1}},
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
