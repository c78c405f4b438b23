package repository

import (
	"context"
	"strconv"
	"time"

	"crm_pipeline_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// insertActivityTx appends one ledger entry inside the caller's transaction
// so it commits atomically with the state change it documents. This is the
// only write path for contact_activities; no update or delete exists.
func insertActivityTx(ctx context.Context, tx pgx.Tx, contactID, actorID uuid.UUID, details domain.ActivityDetails) error {
	raw, err := domain.MarshalDetails(details)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO contact_activities (contact_id, action, actor_id, details)
		VALUES ($1, $2, $3, $4)
	`, contactID, string(details.Action()), actorID, raw)
	return err
}

// ActivityFilter narrows an activity listing. Zero values mean "no filter".
type ActivityFilter struct {
	Action domain.Action
	From   *time.Time
	To     *time.Time
}

// ListActivities returns a contact's ledger in reverse-chronological order,
// optionally filtered by action and time range.
func (r *Repository) ListActivities(ctx context.Context, contactID uuid.UUID, filter ActivityFilter) ([]domain.ActivityEntry, error) {
	query := `
		SELECT id, contact_id, action, actor_id, details, created_at
		FROM contact_activities
		WHERE contact_id = $1`
	args := []any{contactID}

	if filter.Action != "" {
		args = append(args, string(filter.Action))
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ActivityEntry, 0)
	for rows.Next() {
		var entry domain.ActivityEntry
		var action string
		if err := rows.Scan(&entry.ID, &entry.ContactID, &action, &entry.ActorID, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Action = domain.Action(action)
		items = append(items, entry)
	}

	return items, rows.Err()
}
