// Package handler exposes contacts, placements and the activity ledger over HTTP.
package handler

import (
	"net/http"

	"crm_pipeline_backend/internal/contacts/service"
	"crm_pipeline_backend/internal/contacts/transport"
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

// Handler handles HTTP requests for the contacts context.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new contacts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts contact routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.POST("/:id/tags", h.AddTag)
	group.POST("/:id/assignees", h.AddAssignee)
	group.PATCH("/:id/placement", h.Move)
	group.PATCH("/placements", h.MoveBatch)
	group.POST("/duplicate-check", h.CheckDuplicates)
	group.POST("/bulk", h.BulkUpsert)
	group.GET("/:id/activities", h.ListActivities)
	group.POST("/:id/responses", h.AddResponse)
	group.GET("/:id/responses", h.ListResponses)
	group.PUT("/:id/responses/:responseId", h.UpdateResponse)
}

// RegisterBoardRoutes mounts the stage-board listing under the pipelines path.
func (h *Handler) RegisterBoardRoutes(group *gin.RouterGroup) {
	group.GET("/pipelines/:id/stages/:stageId/contacts", h.ListByStage)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.IncomingContact
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, created)
}

func (h *Handler) Get(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	contact, err := h.svc.Get(c.Request.Context(), contactID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, contact)
}

func (h *Handler) Update(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), contactID, req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, updated)
}

func (h *Handler) AddTag(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AddTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	if err := h.svc.AddTag(c.Request.Context(), contactID, req, actorID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

type addAssigneeRequest struct {
	UserID string `json:"userId" binding:"required" validate:"required,uuid"`
}

func (h *Handler) AddAssignee(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req addAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "invalid user id")
		return
	}

	actorID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	if err := h.svc.AddAssignee(c.Request.Context(), contactID, userID, actorID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Move(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	moved, err := h.svc.Move(c.Request.Context(), contactID, req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, moved)
}

func (h *Handler) MoveBatch(c *gin.Context) {
	var req transport.BatchMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	moved, err := h.svc.MoveBatch(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, moved)
}

func (h *Handler) ListByStage(c *gin.Context) {
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListByStage(c.Request.Context(), pipelineID, stageID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) CheckDuplicates(c *gin.Context) {
	var req transport.DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CheckDuplicates(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) BulkUpsert(c *gin.Context) {
	var req transport.BulkUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.CurrentUserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	result, err := h.svc.BulkUpsert(c.Request.Context(), req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
