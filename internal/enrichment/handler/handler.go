// Package handler exposes the draft generation trigger over HTTP.
package handler

import (
	"net/http"

	"prospect_backend/internal/enrichment/service"
	"prospect_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles enrichment HTTP requests.
type Handler struct {
	svc *service.Service
}

// New creates an enrichment handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the generate trigger on the authenticated group.
// The rate limiter keeps a single user from hammering the external
// drafting service.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limiter *httpkit.GenerateRateLimiter) {
	generate := rg.Group("/leads")
	if limiter != nil {
		generate.Use(limiter.RateLimit())
	}
	generate.POST("/:id/generate", h.Generate)
}

// Generate submits the lead dossier to the drafting service and returns
// the provisional reply.
func (h *Handler) Generate(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), identity.UserID(), leadID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}
