// Package notification turns domain events into user-visible signals:
// persisted in-app notifications and SSE pushes to connected cockpits.
// It subscribes to events so the other modules never know how failures
// and refreshes reach the user.
package notification

import (
	"context"
	"fmt"

	"prospect_backend/internal/events"
	apphttp "prospect_backend/internal/http"
	notifhandler "prospect_backend/internal/notification/handler"
	"prospect_backend/internal/notification/inapp"
	"prospect_backend/internal/notification/sse"
	"prospect_backend/platform/httpkit"
	"prospect_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires in-app notifications and the SSE push channel.
type Module struct {
	inapp   *inapp.Service
	sse     *sse.Service
	handler *notifhandler.HTTPHandler
	log     *logger.Logger
}

// New creates the notification module.
func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := inapp.NewRepository(pool)
	inappSvc := inapp.NewService(repo, log)
	sseSvc := sse.New()
	inappSvc.SetSSE(sseSvc)

	return &Module{
		inapp:   inappSvc,
		sse:     sseSvc,
		handler: notifhandler.NewHTTPHandler(inappSvc),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts the notification endpoints and the SSE stream.
// The stream sits on the authenticated group; the auth middleware
// accepts the token as a query parameter for EventSource clients.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))

	ctx.Protected.GET("/events", m.sse.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			return uuid.Nil, false
		}
		return identity.UserID(), true
	}))
}

// SSE returns the push service for cross-module wiring.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes the module to the domain events it fans out.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TaskCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.TaskCompleted)
		if !ok {
			return nil
		}
		m.sse.Publish(e.UserID, sse.Event{
			Type:   sse.EventTaskCompleted,
			TaskID: e.TaskID,
			LeadID: e.LeadID,
		})
		return nil
	}))

	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadStatusChanged)
		if !ok {
			return nil
		}
		m.sse.Broadcast(sse.Event{
			Type:   sse.EventLeadUpdated,
			LeadID: e.LeadID,
			Data:   map[string]string{"statusCode": e.StatusCode},
		})
		return nil
	}))

	bus.Subscribe(events.AnnotationsRefreshed{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.AnnotationsRefreshed)
		if !ok {
			return nil
		}
		m.sse.Publish(e.UserID, sse.Event{
			Type:   sse.EventAnnotationsRefreshed,
			LeadID: e.LeadID,
		})
		return nil
	}))

	// The status-change flow never rolls back; this notification is the
	// only trace a failed persist leaves for the user.
	bus.Subscribe(events.LeadStatusPersistFailed{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadStatusPersistFailed)
		if !ok {
			return nil
		}

		leadID := e.LeadID
		err := m.inapp.Send(ctx, inapp.SendParams{
			UserID:     e.UserID,
			Title:      "Status change not saved",
			Content:    fmt.Sprintf("Moving the lead to %q could not be saved. The pipeline will show the previous stage after a refresh.", e.Label),
			ResourceID: &leadID,
			Category:   "error",
		})
		if err != nil {
			m.log.Error("failed to notify status persist failure", "error", err, "leadId", e.LeadID)
		}
		return nil
	}))
}
