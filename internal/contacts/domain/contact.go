package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Contact is a person/lead record. Placements and the activity ledger are
// owned by the contact; the ledger is append-only for the contact's lifetime.
type Contact struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Notes       string
	Probability int
	Tags        []Tag
	Assignees   []Assignee
	Placements  []Placement
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is a label owned by the user who added it.
type Tag struct {
	Tag       string
	AddedBy   uuid.UUID
	CreatedAt time.Time
}

// Assignee records a user responsible for the contact and when they were assigned.
type Assignee struct {
	UserID     uuid.UUID
	AssignedAt time.Time
}

// NormalizeEmail produces the canonical form used for duplicate detection:
// trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FullName joins the contact's name parts for display.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}
