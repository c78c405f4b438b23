// Package pipelines provides the pipeline/stage catalog bounded context.
// This file defines the module that encapsulates setup and route registration.
package pipelines

import (
	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/internal/pipelines/handler"
	"crm_pipeline_backend/internal/pipelines/repository"
	"crm_pipeline_backend/internal/pipelines/service"
	"crm_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipelines"
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/pipelines")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
