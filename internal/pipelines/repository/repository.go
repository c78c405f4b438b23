package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("pipeline not found")
	ErrDuplicateName  = errors.New("pipeline name already exists")
	ErrDuplicateStage = errors.New("stage name or position already used in pipeline")
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Pipeline struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Stage struct {
	ID          uuid.UUID
	PipelineID  uuid.UUID
	Name        string
	Position    int
	Probability int
	CreatedAt   time.Time
}

type CreatePipelineParams struct {
	Name    string
	OwnerID uuid.UUID
	Notes   string
}

func (r *Repository) CreatePipeline(ctx context.Context, params CreatePipelineParams) (Pipeline, error) {
	var p Pipeline
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pipelines (name, owner_id, notes)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id, notes, created_at, updated_at
	`, params.Name, params.OwnerID, params.Notes).Scan(
		&p.ID, &p.Name, &p.OwnerID, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Pipeline{}, ErrDuplicateName
		}
		return Pipeline{}, err
	}

	return p, nil
}

func (r *Repository) GetPipeline(ctx context.Context, id uuid.UUID) (Pipeline, error) {
	var p Pipeline
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, notes, created_at, updated_at
		FROM pipelines WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.OwnerID, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pipeline{}, ErrNotFound
	}
	if err != nil {
		return Pipeline{}, err
	}

	return p, nil
}

func (r *Repository) ListPipelines(ctx context.Context) ([]Pipeline, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, owner_id, notes, created_at, updated_at
		FROM pipelines ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Pipeline, 0)
	for rows.Next() {
		var p Pipeline
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}

	return items, rows.Err()
}

type CreateStageParams struct {
	Name        string
	Position    int
	Probability int
}

// CreateStages inserts all stages for a pipeline in one transaction.
// Either every stage is created or none are.
func (r *Repository) CreateStages(ctx context.Context, pipelineID uuid.UUID, specs []CreateStageParams) ([]Stage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the pipeline row so concurrent stage batches for the same pipeline
	// serialize, and report a clean not-found for a missing pipeline.
	var exists uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM pipelines WHERE id = $1 FOR UPDATE`, pipelineID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	created := make([]Stage, 0, len(specs))
	for _, spec := range specs {
		var stage Stage
		err := tx.QueryRow(ctx, `
			INSERT INTO pipeline_stages (pipeline_id, name, position, probability)
			VALUES ($1, $2, $3, $4)
			RETURNING id, pipeline_id, name, position, probability, created_at
		`, pipelineID, spec.Name, spec.Position, spec.Probability).Scan(
			&stage.ID, &stage.PipelineID, &stage.Name, &stage.Position, &stage.Probability, &stage.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return nil, ErrDuplicateStage
			}
			return nil, err
		}
		created = append(created, stage)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) ListStages(ctx context.Context, pipelineID uuid.UUID) ([]Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, pipeline_id, name, position, probability, created_at
		FROM pipeline_stages
		WHERE pipeline_id = $1
		ORDER BY position ASC
	`, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Stage, 0)
	for rows.Next() {
		var stage Stage
		if err := rows.Scan(&stage.ID, &stage.PipelineID, &stage.Name, &stage.Position, &stage.Probability, &stage.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, stage)
	}

	return items, rows.Err()
}

// StageBelongsToPipeline reports whether the stage exists and is owned by the
// given pipeline. This is the predicate the placement engine relies on.
func (r *Repository) StageBelongsToPipeline(ctx context.Context, stageID, pipelineID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pipeline_stages WHERE id = $1 AND pipeline_id = $2
		)
	`, stageID, pipelineID).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}
