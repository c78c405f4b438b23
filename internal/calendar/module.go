// Package calendar provides the calendar/meetings bounded context.
// This file defines the module that encapsulates setup and route registration.
package calendar

import (
	"crm_pipeline_backend/internal/calendar/handler"
	"crm_pipeline_backend/internal/calendar/repository"
	"crm_pipeline_backend/internal/calendar/service"
	"crm_pipeline_backend/internal/events"
	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/platform/logger"
	"crm_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calendar bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the calendar module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, bus)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calendar"
}

// RegisterRoutes mounts calendar routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/calendar")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
