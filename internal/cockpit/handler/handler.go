// Package handler exposes the cockpit over HTTP: queue and radar reads,
// optimistic task completion and pipeline status changes.
package handler

import (
	"context"
	"net/http"
	"time"

	"prospect_backend/internal/cockpit/session"
	"prospect_backend/internal/cockpit/transport"
	"prospect_backend/internal/leads/domain"
	"prospect_backend/platform/httpkit"
	"prospect_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// HistoryStore reads a lead's append-only interaction history.
type HistoryStore interface {
	ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error)
}

// Handler handles cockpit HTTP requests.
type Handler struct {
	sessions *session.Manager
	history  HistoryStore
	val      *validator.Validator
}

// New creates a cockpit handler.
func New(sessions *session.Manager, history HistoryStore, val *validator.Validator) *Handler {
	return &Handler{sessions: sessions, history: history, val: val}
}

// RegisterRoutes mounts the cockpit routes on the authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cockpit := rg.Group("/cockpit")
	cockpit.GET("/queues", h.GetQueues)
	cockpit.GET("/radar", h.GetRadar)
	cockpit.POST("/tasks/:id/complete", h.CompleteTask)

	leads := rg.Group("/leads")
	leads.POST("/:id/focus", h.FocusLead)
	leads.PATCH("/:id/status", h.ChangeStatus)
}

// GetQueues returns the user's queue snapshot, refreshed from the store.
func (h *Handler) GetQueues(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	view, err := h.sessions.Queues(c.Request.Context(), identity.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToQueueResponse(view, time.Now()))
}

// GetRadar returns the classified inbox radar.
func (h *Handler) GetRadar(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	entries, err := h.sessions.Radar(c.Request.Context(), identity.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToRadarResponse(entries))
}

// CompleteTask runs the optimistic completion and returns the resulting
// view. A resync outcome is still a 200: the client renders the
// authoritative snapshot it was handed.
func (h *Handler) CompleteTask(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.sessions.Complete(c.Request.Context(), identity.UserID(), taskID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.CompleteTaskResponse{
		Outcome: string(result.Outcome),
		View:    transport.ToQueueResponse(result.View, time.Now()),
	})
}

// FocusLead opens a lead in the session's detail view and returns the
// lead with its history, annotations and any held draft.
func (h *Handler) FocusLead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, draft, err := h.sessions.Focus(c.Request.Context(), identity.UserID(), leadID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	interactions, err := h.history.ListInteractions(c.Request.Context(), leadID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load lead history", nil)
		return
	}

	history := make([]transport.InteractionResponse, 0, len(interactions))
	for _, item := range interactions {
		history = append(history, transport.InteractionResponse{
			ID:         item.ID,
			Direction:  item.Direction,
			Content:    item.Content,
			OccurredAt: item.OccurredAt,
		})
	}

	httpkit.OK(c, transport.FocusResponse{
		Lead:        transport.ToLeadSummary(lead),
		Annotations: transport.ToAnnotationsResponse(lead.Annotations),
		History:     history,
		Draft:       draft,
	})
}

// ChangeStatus moves a lead to a new pipeline stage. A failed persist
// still answers 200 with persisted=false; the optimistic value stands
// and a notification reports the failure.
func (h *Handler) ChangeStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.sessions.SetStatus(c.Request.Context(), identity.UserID(), leadID, req.Label)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ChangeStatusResponse{
		StatusCode: result.StatusCode,
		Persisted:  result.Persisted,
	})
}
