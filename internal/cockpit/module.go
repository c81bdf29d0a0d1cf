// Package cockpit provides the daily-work bounded context module.
package cockpit

import (
	"prospect_backend/internal/cockpit/handler"
	"prospect_backend/internal/cockpit/session"
	"prospect_backend/internal/events"
	apphttp "prospect_backend/internal/http"
	"prospect_backend/internal/leads/repository"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the cockpit bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	sessions *session.Manager
	repo     *repository.Repository
}

// NewModule creates and initializes the cockpit module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	sessions := session.NewManager(repo, log)
	sessions.SetBus(eventBus)

	h := handler.New(sessions, repo, val)

	return &Module{
		handler:  h,
		sessions: sessions,
		repo:     repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cockpit"
}

// RegisterRoutes mounts the cockpit routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Sessions returns the session manager for cross-module wiring.
func (m *Module) Sessions() *session.Manager {
	return m.sessions
}

// Repository returns the lead record store shared with other modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}
