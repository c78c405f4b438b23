// Package contacts provides the contact/placement bounded context: the
// contact records, the placement engine, the activity ledger and the
// duplicate resolver. This file defines the module that encapsulates setup
// and route registration.
package contacts

import (
	"crm_pipeline_backend/internal/contacts/cache"
	"crm_pipeline_backend/internal/contacts/handler"
	"crm_pipeline_backend/internal/contacts/repository"
	"crm_pipeline_backend/internal/contacts/service"
	"crm_pipeline_backend/internal/events"
	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/platform/logger"
	"crm_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	repository *repository.Repository
}

// NewModule creates and initializes the contacts module. Pass a nil board to
// run without the stage-board cache.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, board cache.Board, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, board, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, repository: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Repository returns the contacts repository so other composition-root
// consumers (the notification subscribers) can read contacts.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts contact routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/contacts")
	m.handler.RegisterRoutes(group)
	m.handler.RegisterBoardRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
