// Package repository provides data access for calendar events.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("calendar event not found")
	ErrContactNotFound = errors.New("contact not found")
)

// Event is one calendar entry, optionally linked to a contact.
type Event struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	ContactID *uuid.UUID
	Title     string
	Location  string
	Notes     string
	StartsAt  time.Time
	EndsAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

type CreateEventParams struct {
	OwnerID   uuid.UUID
	ContactID *uuid.UUID
	Title     string
	Location  string
	Notes     string
	StartsAt  time.Time
	EndsAt    *time.Time
}

func (r *Repository) Create(ctx context.Context, params CreateEventParams) (Event, error) {
	var event Event
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calendar_events (owner_id, contact_id, title, location, notes, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_id, contact_id, title, location, notes, starts_at, ends_at, created_at, updated_at
	`,
		params.OwnerID, params.ContactID, params.Title, params.Location, params.Notes,
		params.StartsAt, params.EndsAt,
	).Scan(
		&event.ID, &event.OwnerID, &event.ContactID, &event.Title, &event.Location,
		&event.Notes, &event.StartsAt, &event.EndsAt, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Event{}, ErrContactNotFound
		}
		return Event{}, err
	}

	return event, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Event, error) {
	var event Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, contact_id, title, location, notes, starts_at, ends_at, created_at, updated_at
		FROM calendar_events WHERE id = $1
	`, id).Scan(
		&event.ID, &event.OwnerID, &event.ContactID, &event.Title, &event.Location,
		&event.Notes, &event.StartsAt, &event.EndsAt, &event.CreatedAt, &event.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}

	return event, nil
}

type UpdateEventParams struct {
	Title    *string
	Location *string
	Notes    *string
	StartsAt *time.Time
	EndsAt   *time.Time
}

// Update applies partial edits to an event owned by the given user.
func (r *Repository) Update(ctx context.Context, id, ownerID uuid.UUID, params UpdateEventParams) (Event, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if current.OwnerID != ownerID {
		return Event{}, ErrNotFound
	}

	next := current
	if params.Title != nil {
		next.Title = *params.Title
	}
	if params.Location != nil {
		next.Location = *params.Location
	}
	if params.Notes != nil {
		next.Notes = *params.Notes
	}
	if params.StartsAt != nil {
		next.StartsAt = *params.StartsAt
	}
	if params.EndsAt != nil {
		next.EndsAt = params.EndsAt
	}

	var updated Event
	err = r.pool.QueryRow(ctx, `
		UPDATE calendar_events
		SET title = $3, location = $4, notes = $5, starts_at = $6, ends_at = $7, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, contact_id, title, location, notes, starts_at, ends_at, created_at, updated_at
	`, id, ownerID, next.Title, next.Location, next.Notes, next.StartsAt, next.EndsAt).Scan(
		&updated.ID, &updated.OwnerID, &updated.ContactID, &updated.Title, &updated.Location,
		&updated.Notes, &updated.StartsAt, &updated.EndsAt, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}

	return updated, nil
}

// ListByOwner returns the owner's events in the given window, soonest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]Event, error) {
	query := `
		SELECT id, owner_id, contact_id, title, location, notes, starts_at, ends_at, created_at, updated_at
		FROM calendar_events
		WHERE owner_id = $1`
	args := []any{ownerID}

	if from != nil {
		args = append(args, *from)
		query += ` AND starts_at >= $` + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND starts_at <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY starts_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID, &event.OwnerID, &event.ContactID, &event.Title, &event.Location,
			&event.Notes, &event.StartsAt, &event.EndsAt, &event.CreatedAt, &event.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, event)
	}

	return items, rows.Err()
}
