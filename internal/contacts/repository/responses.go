package repository

import (
	"context"
	"errors"
	"time"

	"crm_pipeline_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ContactResponse is a structured interaction record (call, meeting, payment
// milestone) linked to a contact.
type ContactResponse struct {
	ID                 uuid.UUID
	ContactID          uuid.UUID
	Activity           string
	Note               string
	MeetingScheduledAt *time.Time
	CreatedBy          uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateResponseParams struct {
	ContactID          uuid.UUID
	Activity           string
	Note               string
	MeetingScheduledAt *time.Time
	CreatedBy          uuid.UUID
}

// CreateResponse inserts the response and its CONTACT_RESPONSE_ADDED ledger
// entry in one transaction.
func (r *Repository) CreateResponse(ctx context.Context, params CreateResponseParams) (ContactResponse, error) {
	var created ContactResponse
	err := r.withTxRetry(ctx, "contacts.create_response", func(tx pgx.Tx) error {
		if err := lockContactTx(ctx, tx, params.ContactID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO contact_responses (contact_id, activity, note, meeting_scheduled_at, created_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, contact_id, activity, note, meeting_scheduled_at, created_by, created_at, updated_at
		`, params.ContactID, params.Activity, params.Note, params.MeetingScheduledAt, params.CreatedBy).Scan(
			&created.ID, &created.ContactID, &created.Activity, &created.Note,
			&created.MeetingScheduledAt, &created.CreatedBy, &created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return insertActivityTx(ctx, tx, params.ContactID, params.CreatedBy, domain.ResponseAddedDetails{
			ResponseID: created.ID,
			Activity:   created.Activity,
			MeetingAt:  created.MeetingScheduledAt,
		})
	})
	if err != nil {
		return ContactResponse{}, err
	}

	return created, nil
}

type UpdateResponseParams struct {
	Activity           *string
	Note               *string
	MeetingScheduledAt *time.Time
}

// UpdateResponse edits a response and appends CONTACT_RESPONSE_UPDATED
// atomically.
func (r *Repository) UpdateResponse(ctx context.Context, contactID, responseID uuid.UUID, params UpdateResponseParams, actorID uuid.UUID) (ContactResponse, error) {
	var updated ContactResponse
	err := r.withTxRetry(ctx, "contacts.update_response", func(tx pgx.Tx) error {
		if err := lockContactTx(ctx, tx, contactID); err != nil {
			return err
		}

		var old ContactResponse
		err := tx.QueryRow(ctx, `
			SELECT id, contact_id, activity, note, meeting_scheduled_at, created_by, created_at, updated_at
			FROM contact_responses WHERE id = $1 AND contact_id = $2 FOR UPDATE
		`, responseID, contactID).Scan(
			&old.ID, &old.ContactID, &old.Activity, &old.Note,
			&old.MeetingScheduledAt, &old.CreatedBy, &old.CreatedAt, &old.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResponseNotFound
		}
		if err != nil {
			return err
		}

		next := old
		if params.Activity != nil {
			next.Activity = *params.Activity
		}
		if params.Note != nil {
			next.Note = *params.Note
		}
		if params.MeetingScheduledAt != nil {
			next.MeetingScheduledAt = params.MeetingScheduledAt
		}

		err = tx.QueryRow(ctx, `
			UPDATE contact_responses
			SET activity = $3, note = $4, meeting_scheduled_at = $5, updated_at = now()
			WHERE id = $1 AND contact_id = $2
			RETURNING id, contact_id, activity, note, meeting_scheduled_at, created_by, created_at, updated_at
		`, responseID, contactID, next.Activity, next.Note, next.MeetingScheduledAt).Scan(
			&updated.ID, &updated.ContactID, &updated.Activity, &updated.Note,
			&updated.MeetingScheduledAt, &updated.CreatedBy, &updated.CreatedAt, &updated.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return insertActivityTx(ctx, tx, contactID, actorID, domain.ResponseUpdatedDetails{
			ResponseID:  responseID,
			OldActivity: old.Activity,
			NewActivity: updated.Activity,
			MeetingAt:   updated.MeetingScheduledAt,
		})
	})
	if err != nil {
		return ContactResponse{}, err
	}

	return updated, nil
}

// ListResponses returns a contact's responses, newest first.
func (r *Repository) ListResponses(ctx context.Context, contactID uuid.UUID) ([]ContactResponse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contact_id, activity, note, meeting_scheduled_at, created_by, created_at, updated_at
		FROM contact_responses
		WHERE contact_id = $1
		ORDER BY created_at DESC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ContactResponse, 0)
	for rows.Next() {
		var item ContactResponse
		if err := rows.Scan(
			&item.ID, &item.ContactID, &item.Activity, &item.Note,
			&item.MeetingScheduledAt, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
