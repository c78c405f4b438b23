// Package handler exposes the calendar over HTTP.
package handler

import (
	"net/http"
	"time"

	"crm_pipeline_backend/internal/calendar/service"
	"crm_pipeline_backend/internal/calendar/transport"
	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnauthorized     = "unauthorized"
)

// Handler handles HTTP requests for the calendar.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new calendar handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts calendar routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/events", h.Create)
	group.GET("/events", h.List)
	group.PATCH("/events/:id", h.Update)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateEventRequest
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
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), ownerID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, created)
}

func (h *Handler) Update(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateEventRequest
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
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), eventID, ownerID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, updated)
}

func (h *Handler) List(c *gin.Context) {
	ownerID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), ownerID, from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, name+" must be RFC 3339")
		return nil, false
	}
	return &parsed, true
}
