package repository

import (
	"context"
	"fmt"
	"time"

	"crm_pipeline_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlacementMove is one requested placement mutation. A nil ActorID applies
// the move silently: the placement updates but no ledger entry is written.
type PlacementMove struct {
	ContactID  uuid.UUID
	PipelineID uuid.UUID
	StageID    uuid.UUID
	Position   *int
	ActorID    *uuid.UUID
}

// MoveOutcome describes one committed placement mutation.
type MoveOutcome struct {
	ContactID   uuid.UUID
	PipelineID  uuid.UUID
	StageID     uuid.UUID
	Position    *int
	Action      domain.Action
	OldStageID  *uuid.UUID
	OldPosition *int
}

// MoveError identifies which entry of a batch failed, so the caller can
// report the offending contact/stage.
type MoveError struct {
	Index     int
	ContactID uuid.UUID
	Err       error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %d (contact %s): %v", e.Index, e.ContactID, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// MovePlacements applies every move inside a single transaction: each
// contact's placement upsert and its ledger entry commit together, and the
// batch is all-or-nothing. Transient contention is retried a bounded number
// of times; client errors (unknown contact/pipeline, stage mismatch) abort
// immediately.
func (r *Repository) MovePlacements(ctx context.Context, moves []PlacementMove) ([]MoveOutcome, error) {
	outcomes := make([]MoveOutcome, 0, len(moves))

	err := r.withTxRetry(ctx, "contacts.move_placements", func(tx pgx.Tx) error {
		outcomes = outcomes[:0]
		for i, move := range moves {
			outcome, err := applyMoveTx(ctx, tx, move)
			if err != nil {
				return &MoveError{Index: i, ContactID: move.ContactID, Err: err}
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcomes, nil
}

func applyMoveTx(ctx context.Context, tx pgx.Tx, move PlacementMove) (MoveOutcome, error) {
	// Per-contact serialization: the row lock is the unit of concurrency
	// control, so the read-validate-write sequence below sees a stable view.
	if err := lockContactTx(ctx, tx, move.ContactID); err != nil {
		return MoveOutcome{}, err
	}

	if err := validateStageTx(ctx, tx, move.PipelineID, move.StageID); err != nil {
		return MoveOutcome{}, err
	}

	existing, err := listPlacementsTx(ctx, tx, move.ContactID)
	if err != nil {
		return MoveOutcome{}, err
	}

	now := time.Now().UTC()
	entry := domain.Placement{
		PipelineID: move.PipelineID,
		StageID:    move.StageID,
		Position:   move.Position,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, previous := domain.UpsertPlacement(existing, entry)

	_, err = tx.Exec(ctx, `
		INSERT INTO contact_placements (contact_id, pipeline_id, stage_id, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contact_id, pipeline_id)
		DO UPDATE SET stage_id = EXCLUDED.stage_id, position = EXCLUDED.position, updated_at = now()
	`, move.ContactID, move.PipelineID, move.StageID, move.Position)
	if err != nil {
		return MoveOutcome{}, err
	}

	outcome := MoveOutcome{
		ContactID:  move.ContactID,
		PipelineID: move.PipelineID,
		StageID:    move.StageID,
		Position:   move.Position,
	}

	if previous == nil {
		outcome.Action = domain.ActionPipelineAdded
	} else {
		outcome.Action = domain.ActionPipelineStageUpdated
		outcome.OldStageID = &previous.StageID
		outcome.OldPosition = previous.Position
	}

	if move.ActorID != nil {
		if details := domain.MoveLedger(previous, entry); details != nil {
			if err := insertActivityTx(ctx, tx, move.ContactID, *move.ActorID, details); err != nil {
				return MoveOutcome{}, err
			}
		}
	}

	return outcome, nil
}

// validateStageTx checks pipeline existence and stage membership using the
// transaction's own read view, so the move never validates against a
// catalog snapshot older than the write.
func validateStageTx(ctx context.Context, tx pgx.Tx, pipelineID, stageID uuid.UUID) error {
	var pipelineExists, stageMatches bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pipelines WHERE id = $1),
		       EXISTS (SELECT 1 FROM pipeline_stages WHERE id = $2 AND pipeline_id = $1)
	`, pipelineID, stageID).Scan(&pipelineExists, &stageMatches)
	if err != nil {
		return err
	}
	if !pipelineExists {
		return ErrPipelineNotFound
	}
	if !stageMatches {
		return ErrStageNotInPipeline
	}
	return nil
}

func listPlacementsTx(ctx context.Context, tx pgx.Tx, contactID uuid.UUID) ([]domain.Placement, error) {
	rows, err := tx.Query(ctx, `
		SELECT pipeline_id, stage_id, position, created_at, updated_at
		FROM contact_placements WHERE contact_id = $1
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Placement, 0)
	for rows.Next() {
		var p domain.Placement
		if err := rows.Scan(&p.PipelineID, &p.StageID, &p.Position, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// StageContact is a contact row as it appears in a stage column.
type StageContact struct {
	Contact   domain.Contact
	Placement domain.Placement
}

// ListByStage returns the contacts placed in the given pipeline stage,
// ascending by position with unpositioned contacts last; ties go to the most
// recently updated placement.
func (r *Repository) ListByStage(ctx context.Context, pipelineID, stageID uuid.UUID) ([]StageContact, error) {
	exists, err := r.stageExists(ctx, pipelineID, stageID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrStageNotInPipeline
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.notes, c.probability,
		       c.created_at, c.updated_at,
		       p.pipeline_id, p.stage_id, p.position, p.created_at, p.updated_at
		FROM contact_placements p
		JOIN contacts c ON c.id = p.contact_id
		WHERE p.pipeline_id = $1 AND p.stage_id = $2
		ORDER BY p.position ASC NULLS LAST, p.updated_at DESC
	`, pipelineID, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StageContact, 0)
	for rows.Next() {
		var item StageContact
		if err := rows.Scan(
			&item.Contact.ID, &item.Contact.FirstName, &item.Contact.LastName,
			&item.Contact.Email, &item.Contact.Phone, &item.Contact.Notes, &item.Contact.Probability,
			&item.Contact.CreatedAt, &item.Contact.UpdatedAt,
			&item.Placement.PipelineID, &item.Placement.StageID, &item.Placement.Position,
			&item.Placement.CreatedAt, &item.Placement.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *Repository) stageExists(ctx context.Context, pipelineID, stageID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pipeline_stages WHERE id = $1 AND pipeline_id = $2)
	`, stageID, pipelineID).Scan(&ok)
	return ok, err
}
