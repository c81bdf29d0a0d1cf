// Package enrichment provides the composition root for draft
// generation and annotation reconciliation.
package enrichment

import (
	"context"

	"prospect_backend/internal/enrichment/client"
	"prospect_backend/internal/enrichment/handler"
	"prospect_backend/internal/enrichment/service"
	"prospect_backend/internal/events"
	apphttp "prospect_backend/internal/http"
	"prospect_backend/internal/scheduler"
	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

// Module wires the enrichment flow and implements http.Module.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule creates the enrichment module and subscribes it to the
// delayed re-read events.
func NewModule(repo service.RecordStore, sessions service.Sessions, delayed scheduler.RereadScheduler, eventBus events.Bus, cfg *config.Config, log *logger.Logger) *Module {
	cli := client.New(cfg, log)
	svc := service.New(repo, sessions, cli, delayed, eventBus, log, cfg.GetEnrichmentRereadDelay())

	eventBus.Subscribe(events.EnrichmentRereadDue{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.EnrichmentRereadDue)
		if !ok {
			return nil
		}
		svc.Reread(ctx, e.LeadID, e.UserID)
		return nil
	}))

	return &Module{
		service: svc,
		handler: handler.New(svc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "enrichment"
}

// RegisterRoutes mounts the generate trigger on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected, ctx.GenerateRateLimiter)
}

// Service returns the enrichment service.
func (m *Module) Service() *service.Service {
	return m.service
}
