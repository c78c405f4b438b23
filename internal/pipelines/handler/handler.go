// Package handler exposes the pipeline catalog over HTTP.
package handler

import (
	"net/http"

	"crm_pipeline_backend/internal/pipelines/service"
	"crm_pipeline_backend/internal/pipelines/transport"
	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the pipeline catalog.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new catalog handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts catalog routes on the given group. Catalog reads are
// open to any authenticated user; mutations are restricted to catalog managers.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.ListPipelines)

	manage := httpkit.RequireRole("admin", "manager")
	group.POST("", manage, h.CreatePipeline)
	group.POST("/:id/stages", manage, h.CreateStages)
}

func (h *Handler) CreatePipeline(c *gin.Context) {
	var req transport.CreatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ownerID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	created, err := h.svc.CreatePipeline(c.Request.Context(), ownerID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, created)
}

func (h *Handler) CreateStages(c *gin.Context) {
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	created, err := h.svc.CreateStages(c.Request.Context(), pipelineID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{"items": created})
}

func (h *Handler) ListPipelines(c *gin.Context) {
	result, err := h.svc.ListPipelines(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
