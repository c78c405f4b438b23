package handler

import (
	"net/http"
	"time"

	"crm_pipeline_backend/internal/contacts/transport"
	"crm_pipeline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) AddResponse(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ContactResponseRequest
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

	created, err := h.svc.AddResponse(c.Request.Context(), contactID, req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, created)
}

func (h *Handler) UpdateResponse(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	responseID, err := uuid.Parse(c.Param("responseId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateContactResponseRequest
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

	updated, err := h.svc.UpdateResponse(c.Request.Context(), contactID, responseID, req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, updated)
}

func (h *Handler) ListResponses(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListResponses(c.Request.Context(), contactID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListActivities serves the contact's ledger. Optional query params: action,
// from, to (RFC 3339).
func (h *Handler) ListActivities(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
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

	result, err := h.svc.ListActivities(c.Request.Context(), contactID, c.Query("action"), from, to)
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
