// Package service holds the contacts business logic: the placement engine,
// the duplicate/upsert resolver, contact responses and the activity query
// surface. Handlers stay thin; repositories stay transactional.
package service

import (
	"context"

	"crm_pipeline_backend/internal/contacts/cache"
	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the contacts
// service. This is a consumer-driven interface - only what the service needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateContactParams) (domain.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error)
	UpdateFields(ctx context.Context, id uuid.UUID, params repository.UpdateContactParams, actorID *uuid.UUID) (domain.Contact, error)
	AddTag(ctx context.Context, contactID uuid.UUID, tag string, actorID uuid.UUID) (bool, error)
	AddAssignee(ctx context.Context, contactID, userID uuid.UUID) (bool, error)
	FindByNormalizedEmails(ctx context.Context, emails []string) (map[string]repository.EmailMatch, error)
	UpsertByEmail(ctx context.Context, params repository.CreateContactParams) (domain.Contact, bool, error)
	MovePlacements(ctx context.Context, moves []repository.PlacementMove) ([]repository.MoveOutcome, error)
	ListByStage(ctx context.Context, pipelineID, stageID uuid.UUID) ([]repository.StageContact, error)
	ListActivities(ctx context.Context, contactID uuid.UUID, filter repository.ActivityFilter) ([]domain.ActivityEntry, error)
	CreateResponse(ctx context.Context, params repository.CreateResponseParams) (repository.ContactResponse, error)
	UpdateResponse(ctx context.Context, contactID, responseID uuid.UUID, params repository.UpdateResponseParams, actorID uuid.UUID) (repository.ContactResponse, error)
	ListResponses(ctx context.Context, contactID uuid.UUID) ([]repository.ContactResponse, error)
}

// Service handles contact operations.
type Service struct {
	repo  Repository
	board cache.Board
	bus   events.Bus
	log   *logger.Logger
}

// New creates a new contacts service.
func New(repo Repository, board cache.Board, bus events.Bus, log *logger.Logger) *Service {
	if board == nil {
		board = cache.NoopBoard{}
	}
	return &Service{repo: repo, board: board, bus: bus, log: log}
}
