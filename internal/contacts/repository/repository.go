package repository

import (
	"context"
	"errors"
	"fmt"

	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound           = errors.New("contact not found")
	ErrPipelineNotFound   = errors.New("pipeline not found")
	ErrStageNotInPipeline = errors.New("stage does not belong to pipeline")
	ErrResponseNotFound   = errors.New("contact response not found")
)

const (
	foreignKeyViolation  = "23503"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

type CreateContactParams struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Notes       string
	Probability int
}

func (r *Repository) Create(ctx context.Context, params CreateContactParams) (domain.Contact, error) {
	var c domain.Contact
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (first_name, last_name, email, email_normalized, phone, notes, probability)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, first_name, last_name, email, phone, notes, probability, created_at, updated_at
	`,
		params.FirstName, params.LastName, params.Email, domain.NormalizeEmail(params.Email),
		params.Phone, params.Notes, params.Probability,
	).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Notes, &c.Probability,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Contact{}, err
	}

	return c, nil
}

// GetByID loads the full contact aggregate: fields, tags, assignees and
// placements. The activity ledger is loaded separately via ListActivities.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	var c domain.Contact
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, notes, probability, created_at, updated_at
		FROM contacts WHERE id = $1
	`, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Notes, &c.Probability,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, err
	}

	if c.Tags, err = r.listTags(ctx, id); err != nil {
		return domain.Contact{}, err
	}
	if c.Assignees, err = r.listAssignees(ctx, id); err != nil {
		return domain.Contact{}, err
	}
	if c.Placements, err = r.listPlacements(ctx, id); err != nil {
		return domain.Contact{}, err
	}

	return c, nil
}

func (r *Repository) listTags(ctx context.Context, contactID uuid.UUID) ([]domain.Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tag, added_by, created_at FROM contact_tags
		WHERE contact_id = $1 ORDER BY created_at ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Tag, 0)
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.Tag, &t.AddedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *Repository) listAssignees(ctx context.Context, contactID uuid.UUID) ([]domain.Assignee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, assigned_at FROM contact_assignees
		WHERE contact_id = $1 ORDER BY assigned_at ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Assignee, 0)
	for rows.Next() {
		var a domain.Assignee
		if err := rows.Scan(&a.UserID, &a.AssignedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *Repository) listPlacements(ctx context.Context, contactID uuid.UUID) ([]domain.Placement, error) {
	rows, err := r.pool.Query(ctx, `
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

type UpdateContactParams struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	Notes       *string
	Probability *int
}

// UpdateFields applies the provided (non-nil) field edits and appends a
// CONTACT_UPDATED entry with the before/after values, in one transaction.
// With no actor the edit still applies but nothing is logged.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, params UpdateContactParams, actorID *uuid.UUID) (domain.Contact, error) {
	var updated domain.Contact
	err := r.withTxRetry(ctx, "contacts.update_fields", func(tx pgx.Tx) error {
		var old domain.Contact
		err := tx.QueryRow(ctx, `
			SELECT id, first_name, last_name, email, phone, notes, probability
			FROM contacts WHERE id = $1 FOR UPDATE
		`, id).Scan(&old.ID, &old.FirstName, &old.LastName, &old.Email, &old.Phone, &old.Notes, &old.Probability)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		next := old
		changed := map[string]domain.FieldChange{}
		applyText := func(field string, target *string, value *string) {
			if value != nil && *value != *target {
				changed[field] = domain.FieldChange{Old: *target, New: *value}
				*target = *value
			}
		}
		applyText("firstName", &next.FirstName, params.FirstName)
		applyText("lastName", &next.LastName, params.LastName)
		applyText("email", &next.Email, params.Email)
		applyText("phone", &next.Phone, params.Phone)
		applyText("notes", &next.Notes, params.Notes)
		if params.Probability != nil && *params.Probability != old.Probability {
			changed["probability"] = domain.FieldChange{
				Old: fmt.Sprintf("%d", old.Probability),
				New: fmt.Sprintf("%d", *params.Probability),
			}
			next.Probability = *params.Probability
		}

		err = tx.QueryRow(ctx, `
			UPDATE contacts
			SET first_name = $2, last_name = $3, email = $4, email_normalized = $5,
			    phone = $6, notes = $7, probability = $8, updated_at = now()
			WHERE id = $1
			RETURNING id, first_name, last_name, email, phone, notes, probability, created_at, updated_at
		`, id, next.FirstName, next.LastName, next.Email, domain.NormalizeEmail(next.Email),
			next.Phone, next.Notes, next.Probability,
		).Scan(
			&updated.ID, &updated.FirstName, &updated.LastName, &updated.Email, &updated.Phone,
			&updated.Notes, &updated.Probability, &updated.CreatedAt, &updated.UpdatedAt,
		)
		if err != nil {
			return err
		}

		if actorID != nil && len(changed) > 0 {
			return insertActivityTx(ctx, tx, id, *actorID, domain.ContactUpdatedDetails{Changed: changed})
		}
		return nil
	})
	if err != nil {
		return domain.Contact{}, err
	}

	return updated, nil
}

// AddTag attaches a tag and logs TAG_ADDED atomically. Adding a tag the
// contact already carries is a no-op and produces no ledger entry.
func (r *Repository) AddTag(ctx context.Context, contactID uuid.UUID, tag string, actorID uuid.UUID) (bool, error) {
	var added bool
	err := r.withTxRetry(ctx, "contacts.add_tag", func(tx pgx.Tx) error {
		added = false
		if err := lockContactTx(ctx, tx, contactID); err != nil {
			return err
		}

		res, err := tx.Exec(ctx, `
			INSERT INTO contact_tags (contact_id, tag, added_by)
			VALUES ($1, $2, $3)
			ON CONFLICT (contact_id, tag) DO NOTHING
		`, contactID, tag, actorID)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return nil
		}

		added = true
		return insertActivityTx(ctx, tx, contactID, actorID, domain.TagAddedDetails{Tag: tag})
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// AddAssignee records an assignee on the contact. Returns false when the user
// was already assigned.
func (r *Repository) AddAssignee(ctx context.Context, contactID, userID uuid.UUID) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		INSERT INTO contact_assignees (contact_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (contact_id, user_id) DO NOTHING
	`, contactID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return false, ErrNotFound
		}
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// EmailMatch is an existing contact found by normalized email, with the
// assignee signal the duplicate resolver needs.
type EmailMatch struct {
	ContactID    uuid.UUID
	Email        string
	HasAssignees bool
}

// FindByNormalizedEmails returns existing contacts whose normalized email is
// in the given set, keyed by normalized email. Read-only.
func (r *Repository) FindByNormalizedEmails(ctx context.Context, emails []string) (map[string]EmailMatch, error) {
	if len(emails) == 0 {
		return map[string]EmailMatch{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.email, c.email_normalized,
		       EXISTS (SELECT 1 FROM contact_assignees a WHERE a.contact_id = c.id)
		FROM contacts c
		WHERE c.email_normalized = ANY($1) AND c.email_normalized <> ''
	`, emails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make(map[string]EmailMatch)
	for rows.Next() {
		var m EmailMatch
		var normalized string
		if err := rows.Scan(&m.ContactID, &m.Email, &normalized, &m.HasAssignees); err != nil {
			return nil, err
		}
		matches[normalized] = m
	}
	return matches, rows.Err()
}

// UpsertByEmail creates the contact when its normalized email is unknown and
// updates the existing record in place otherwise. Contacts without an email
// are always created.
func (r *Repository) UpsertByEmail(ctx context.Context, params CreateContactParams) (domain.Contact, bool, error) {
	normalized := domain.NormalizeEmail(params.Email)
	if normalized == "" {
		c, err := r.Create(ctx, params)
		return c, true, err
	}

	var c domain.Contact
	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (first_name, last_name, email, email_normalized, phone, notes, probability)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email_normalized) WHERE email_normalized <> ''
		DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
		              phone = EXCLUDED.phone, notes = EXCLUDED.notes,
		              probability = EXCLUDED.probability, updated_at = now()
		RETURNING id, first_name, last_name, email, phone, notes, probability, created_at, updated_at,
		          (xmax = 0)
	`,
		params.FirstName, params.LastName, params.Email, normalized,
		params.Phone, params.Notes, params.Probability,
	).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Notes, &c.Probability,
		&c.CreatedAt, &c.UpdatedAt, &inserted,
	)
	if err != nil {
		return domain.Contact{}, false, err
	}

	return c, inserted, nil
}

// Ping satisfies the health checker used by the router.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// lockContactTx takes the per-contact row lock that serializes concurrent
// writers, failing with ErrNotFound for unknown contacts.
func lockContactTx(ctx context.Context, tx pgx.Tx, contactID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM contacts WHERE id = $1 FOR UPDATE`, contactID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// withTxRetry runs fn inside a transaction, retrying a small fixed number of
// times when the datastore reports transient contention. The caller never
// observes a partially applied transaction.
func (r *Repository) withTxRetry(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	const maxAttempts = 3

	for attempt := 1; ; attempt++ {
		err := r.runInTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryableTxError(err) || attempt == maxAttempts {
			return err
		}
		if r.log != nil {
			r.log.WithContext(ctx).TxRetry(op, attempt, err)
		}
	}
}

func (r *Repository) runInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected
}
